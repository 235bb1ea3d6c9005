package scheduling

// Result is the uniform outcome envelope of every scheduling operation.
// Operations never return Go errors to their callers; failures are carried
// in Error and callers branch on Success.
type Result[T any] struct {
	Success  bool     `json:"success"`
	Data     T        `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func ok[T any](data T, message string) Result[T] {
	return Result[T]{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func okWithWarnings[T any](data T, message string, warnings []string) Result[T] {
	return Result[T]{
		Success:  true,
		Data:     data,
		Message:  message,
		Warnings: warnings,
	}
}

func fail[T any](errMsg string) Result[T] {
	return Result[T]{
		Success: false,
		Error:   errMsg,
	}
}

func failWithWarnings[T any](errMsg string, warnings []string) Result[T] {
	return Result[T]{
		Success:  false,
		Error:    errMsg,
		Warnings: warnings,
	}
}
