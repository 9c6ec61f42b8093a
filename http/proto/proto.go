package proto

type Proto uint8

const (
	Unknown Proto = iota
	HTTP10
	HTTP11
)

func (p Proto) String() string {
	switch p {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

const (
	protoTokenLength   = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	httpScheme         = "HTTP/"
)

// Parse recognizes HTTP/1.0 and HTTP/1.1. Everything else, including HTTP/2 which never
// appears in a textual start line, results in Unknown.
func Parse(str string) Proto {
	if len(str) != protoTokenLength || str[:majorVersionOffset] != httpScheme ||
		str[majorVersionOffset] != '1' || str[majorVersionOffset+1] != '.' {
		return Unknown
	}

	switch str[minorVersionOffset] {
	case '0':
		return HTTP10
	case '1':
		return HTTP11
	default:
		return Unknown
	}
}
