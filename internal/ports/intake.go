package ports

// Intake is a front end that accepts submissions and runs them through the spam guard
type Intake interface {
	// Start starts accepting submissions
	Start() error

	// Stop stops accepting submissions and releases resources
	Stop() error
}
