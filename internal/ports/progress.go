package ports

// Progress es una instantánea del avance de la búsqueda. Los contadores
// solo crecen; un lector puede ver un valor ligeramente atrasado, nunca
// inconsistente con el resultado final.
type Progress struct {
	Done  int
	Total int
}

// ProgressReporter recibe el avance del optimizador. Se inyecta en la
// construcción — nunca un singleton de proceso — para que el optimizador
// sea testeable sin estado global compartido.
type ProgressReporter interface {
	// Report publica el avance actual. Debe ser barato y no bloquear:
	// se llama desde el camino caliente del pool de workers.
	Report(p Progress)
}

// NopProgress descarta el avance. Útil en tests y en modo silencioso.
type NopProgress struct{}

// Report implementa ProgressReporter.
func (NopProgress) Report(Progress) {}
