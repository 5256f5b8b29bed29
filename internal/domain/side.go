package domain

// Side identifica uno de los dos resultados mutuamente excluyentes del evento.
// Todo el pipeline trabaja en orientación SideA: las cotizaciones del lado B
// se convierten en la alineación, nunca después con heurísticas post-hoc.
type Side int

const (
	SideA Side = iota
	SideB
)

// String devuelve la etiqueta del lado para logs y tablas.
func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	}
	return "?"
}

// ParseSide convierte la etiqueta textual del dataset en un Side.
// Devuelve false si la etiqueta no es reconocida.
func ParseSide(label string) (Side, bool) {
	switch label {
	case "A", "a", "home", "HOME":
		return SideA, true
	case "B", "b", "away", "AWAY":
		return SideB, true
	}
	return SideA, false
}

// Outcome es el resultado final del evento según los metadatos.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeA
	OutcomeB
)

// String devuelve la etiqueta del resultado.
func (o Outcome) String() string {
	switch o {
	case OutcomeA:
		return "A"
	case OutcomeB:
		return "B"
	}
	return "unknown"
}

// ParseOutcome convierte la etiqueta textual del dataset en un Outcome.
// Etiquetas no reconocidas se tratan como unknown (evento sin resolver).
func ParseOutcome(label string) Outcome {
	switch label {
	case "A", "a", "home", "HOME":
		return OutcomeA
	case "B", "b", "away", "AWAY":
		return OutcomeB
	}
	return OutcomeUnknown
}

// Probability devuelve la probabilidad realizada del lado A: 1 si ganó A,
// 0 si ganó B. Devuelve false si el evento no está resuelto.
func (o Outcome) Probability() (float64, bool) {
	switch o {
	case OutcomeA:
		return 1, true
	case OutcomeB:
		return 0, true
	}
	return 0, false
}
