package headers

// Names of the headers the connector maps onto high-level fields. Everything else stays
// in the raw header block only.
const (
	Accept             = "Accept"
	AcceptCharset      = "Accept-Charset"
	AcceptEncoding     = "Accept-Encoding"
	AcceptLanguage     = "Accept-Language"
	AcceptRanges       = "Accept-Ranges"
	Age                = "Age"
	Allow              = "Allow"
	Authorization      = "Authorization"
	Connection         = "Connection"
	ContentDisposition = "Content-Disposition"
	ContentEncoding    = "Content-Encoding"
	ContentLanguage    = "Content-Language"
	ContentLength      = "Content-Length"
	ContentLocation    = "Content-Location"
	ContentRange       = "Content-Range"
	ContentType        = "Content-Type"
	Cookie             = "Cookie"
	Date               = "Date"
	ETag               = "ETag"
	Expect             = "Expect"
	Expires            = "Expires"
	Host               = "Host"
	IfMatch            = "If-Match"
	IfModifiedSince    = "If-Modified-Since"
	IfNoneMatch        = "If-None-Match"
	IfUnmodifiedSince  = "If-Unmodified-Since"
	LastModified       = "Last-Modified"
	Location           = "Location"
	Range              = "Range"
	RetryAfter         = "Retry-After"
	Server             = "Server"
	SetCookie          = "Set-Cookie"
	TransferEncoding   = "Transfer-Encoding"
	UserAgent          = "User-Agent"
	Vary               = "Vary"
	WWWAuthenticate    = "WWW-Authenticate"
)

// Entity lists headers describing the representation rather than the message. They are
// copied between the header block and the representation in both directions.
var Entity = []string{
	ContentType, ContentLength, ContentEncoding, ContentLanguage, ContentLocation,
	ContentDisposition, ContentRange, ETag, Expires, LastModified,
}
