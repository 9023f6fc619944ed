package sky

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	kindLabel    = "kind"
)

var (
	tilesRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sky_tiles_registered_total",
		Help: "The number of tiles registered in a sky domain.",
	})

	ghostTiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_ghost_tiles_total",
		Help: "The number of ghost tiles created by edge and corner reflections.",
	}, []string{kindLabel})

	registrationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_registration_errors_total",
		Help: "The errors that occured while registering a tile.",
	}, []string{errTypeLabel})
)

func instrumentRegistration(r reflection) {
	tilesRegistered.Inc()

	if n := len(r.edges); n != 0 {
		ghostTiles.
			With(prometheus.Labels{kindLabel: "edge"}).
			Add(float64(n))
	}
	if n := len(r.corners); n != 0 {
		ghostTiles.
			With(prometheus.Labels{kindLabel: "corner"}).
			Add(float64(n))
	}
}

func instrumentRegistrationError(err error) {
	registrationErrors.
		With(prometheus.Labels{errTypeLabel: errors.Type(err)}).
		Inc()
}
