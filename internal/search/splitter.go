package search

// splitter.go — partición determinista de eventos en train/validation/test.
// Misma entrada (ids + seed + ratios) ⇒ misma asignación, siempre: la
// reproducibilidad de la búsqueda entera depende de esto.

import (
	"math"
	"math/rand"
	"sort"

	"github.com/alejandrodnm/polygrid/internal/domain"
)

// Split asigna cada evento a exactamente una partición. Ordena los ids,
// baraja con un PRNG sembrado y corta en las fronteras de ratio acumulado
// con redondeo que nunca pierde ni duplica un evento.
func Split(eventIDs []string, ratios domain.SplitRatios, seed int64) (domain.SplitAssignment, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(eventIDs))
	copy(ids, eventIDs)
	sort.Strings(ids)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	n := len(ids)
	nTrain := int(math.Round(float64(n) * ratios.Train))
	nVal := int(math.Round(float64(n) * ratios.Validation))
	if nTrain > n {
		nTrain = n
	}
	if nTrain+nVal > n {
		nVal = n - nTrain
	}
	// El resto va a test: los tres cortes cubren exactamente n ids.

	assignment := make(domain.SplitAssignment, n)
	for i, id := range ids {
		switch {
		case i < nTrain:
			assignment[id] = domain.SplitTrain
		case i < nTrain+nVal:
			assignment[id] = domain.SplitValidation
		default:
			assignment[id] = domain.SplitTest
		}
	}
	return assignment, nil
}
