package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrConnectorNotFound = errors.New("connector not found")
)

type ConnectorType string

const (
	ConnectorType_Fitbit       ConnectorType = "fitbit"
	ConnectorType_GoogleFit    ConnectorType = "google_fit"
	ConnectorType_MyFitnessPal ConnectorType = "myfitnesspal"
)

// Connector is a single data source synced on a daily cursor. A connector is
// stateless across invocations: everything it needs arrives in the
// SyncRequest and everything the orchestrator should persist leaves in the
// SyncResponse.
type Connector interface {
	Type() ConnectorType
	Sync(ctx context.Context, req SyncRequest) (SyncResponse, error)
}

type SelectConnectorParams struct {
	ConnectorType ConnectorType
}

type ConnectorSelector interface {
	Select(ctx context.Context, params SelectConnectorParams) (Connector, error)
	RegisterConnector(connectorType ConnectorType, connector Connector)
}

type connectorSelector struct {
	connectorsByType map[ConnectorType]Connector
}

func NewConnectorSelector() ConnectorSelector {
	return &connectorSelector{
		connectorsByType: make(map[ConnectorType]Connector),
	}
}

func (s *connectorSelector) RegisterConnector(connectorType ConnectorType, connector Connector) {
	s.connectorsByType[connectorType] = connector
}

func (s *connectorSelector) Select(ctx context.Context, params SelectConnectorParams) (Connector, error) {
	connector, ok := s.connectorsByType[params.ConnectorType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConnectorNotFound, params.ConnectorType)
	}

	return connector, nil
}
