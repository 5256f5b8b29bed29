package ports

import (
	"context"

	"github.com/alejandrodnm/polygrid/internal/domain"
)

// EventProvider entrega los datos crudos por evento desde la capa de
// persistencia (externa al núcleo): metadatos, serie de pronóstico y serie
// de mercado ya adaptada a la forma común de cotización.
type EventProvider interface {
	// ListEvents devuelve los metadatos de todos los eventos del dataset.
	ListEvents(ctx context.Context) ([]domain.EventMeta, error)

	// FetchEvent devuelve las series completas de un evento,
	// ordenadas por timestamp.
	FetchEvent(ctx context.Context, eventID string) (domain.EventData, error)
}
