package interfaces

// LoggerInterface is the minimal sink the archivist writes to. The stdlib
// *log.Logger satisfies it, which is what the example and CLI pass in.
type LoggerInterface interface {
	Println(v ...interface{})
}
