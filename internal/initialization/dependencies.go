package initialization

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fitsync/fitsync/pkg/connectors/fitbit"
	"github.com/fitsync/fitsync/pkg/connectors/googlefit"
	"github.com/fitsync/fitsync/pkg/connectors/myfitnesspal"
	"github.com/fitsync/fitsync/pkg/domain"
)

// BuildConnectorSelector wires every connector once at startup. Selection per
// request happens by connector type, never by re-detecting payload shapes.
func BuildConnectorSelector(config *Config) (domain.ConnectorSelector, error) {
	location, err := time.LoadLocation(config.GoogleFitTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid GOOGLEFIT_TIMEZONE %q: %w", config.GoogleFitTimezone, err)
	}

	client := &http.Client{
		Timeout: time.Duration(config.HTTPTimeoutSeconds) * time.Second,
	}

	selector := domain.NewConnectorSelector()

	allConnectors := []domain.Connector{
		fitbit.NewFitbitConnector(fitbit.ConnectorDeps{
			HTTPClient: client,
		}),
		googlefit.NewGoogleFitConnector(googlefit.ConnectorDeps{
			Location:   location,
			HTTPClient: client,
		}),
		myfitnesspal.NewMyFitnessPalConnector(myfitnesspal.ConnectorDeps{
			HTTPClient: client,
		}),
	}

	for _, connector := range allConnectors {
		selector.RegisterConnector(connector.Type(), connector)
	}

	return selector, nil
}
