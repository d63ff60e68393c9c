package coord

// Error is the interface implemented by the errors of all packages in this
// module. Decorate adds information to the error as it travels up the calling
// stack, without changing its type; each call returns the current decoration
// slice. Passing an empty string only retrieves the slice.
type Error interface {
	Error() string
	Decorate(string) []string
}

// TrajError is the interface for errors produced while reading trajectories.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError marks the normal, non-error termination of a trajectory read,
// so it can be filtered in a type switch. NormalLastFrameTermination does
// nothing; it only separates this interface from other TrajErrors.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination()
}
