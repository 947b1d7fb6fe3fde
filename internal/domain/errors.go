package domain

// ErrorKind is a closed set of failure categories raised by the domain
// services. The HTTP layer maps kinds to transport statuses; services never
// report which precondition detail failed beyond the kind itself.
type ErrorKind string

const (
	KindAlreadyExists       ErrorKind = "already_exists"
	KindNotFound            ErrorKind = "not_found"
	KindInvalidCredentials  ErrorKind = "invalid_credentials"
	KindAccountNotActive    ErrorKind = "account_not_active"
	KindInvalidCode         ErrorKind = "invalid_code"
	KindCodeExpired         ErrorKind = "code_expired"
	KindTokenInvalid        ErrorKind = "token_invalid"
	KindTokenExpired        ErrorKind = "token_expired"
	KindAuthHeaderMalformed ErrorKind = "auth_header_malformed"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// Error is a tagged domain failure. Two errors are equivalent for
// errors.Is when their kinds match, so services can wrap the sentinels
// below with extra context without breaking callers.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrAlreadyExists       = &Error{KindAlreadyExists, "user with this email already exists"}
	ErrNotFound            = &Error{KindNotFound, "user not found"}
	ErrInvalidCredentials  = &Error{KindInvalidCredentials, "invalid email or password"}
	ErrAccountNotActive    = &Error{KindAccountNotActive, "account is not active"}
	ErrInvalidCode         = &Error{KindInvalidCode, "invalid activation code"}
	ErrCodeExpired         = &Error{KindCodeExpired, "activation code has expired"}
	ErrTokenInvalid        = &Error{KindTokenInvalid, "invalid token"}
	ErrTokenExpired        = &Error{KindTokenExpired, "token has expired"}
	ErrAuthHeaderMalformed = &Error{KindAuthHeaderMalformed, "invalid authorization header format, use: Bearer <token>"}
	ErrUpstreamUnavailable = &Error{KindUpstreamUnavailable, "search service unavailable"}
)
