package ports

import (
	"context"

	"github.com/alejandrodnm/polygrid/internal/domain"
)

// Notifier presenta los resultados de la búsqueda al usuario.
type Notifier interface {
	// Notify muestra el resultado completo de la búsqueda.
	// En la implementación de consola, imprime tablas formateadas.
	Notify(ctx context.Context, result *domain.GridSearchResult) error
}
