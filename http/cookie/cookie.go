package cookie

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/internal/strutil"
)

var ErrBadCookie = errors.New("cookie has a malformed syntax")

// Cookie is a cookie setting, transmitted via the Set-Cookie header.
type Cookie struct {
	Name    string
	Value   string
	Path    string
	Domain  string
	Expires time.Time
	// MaxAge defines a delta in seconds, when the cookie should be dropped.
	// Note, that zero is treated as a zero-value, so will be ignored. In order
	// to be added with a value of zero, it must be negative. -1 is the conventional
	// value for this purpose
	MaxAge   int
	SameSite SameSite
	Secure   bool
	HttpOnly bool
}

func New(name, value string) Cookie {
	return Cookie{Name: name, Value: value}
}

// Render produces the value of the Set-Cookie header.
func (c Cookie) Render() string {
	buff := make([]byte, 0, len(c.Name)+len(c.Value)+64)
	buff = append(buff, c.Name...)
	buff = append(buff, '=')
	buff = append(buff, c.Value...)

	if len(c.Path) > 0 {
		buff = append(buff, "; Path="...)
		buff = append(buff, c.Path...)
	}

	if len(c.Domain) > 0 {
		buff = append(buff, "; Domain="...)
		buff = append(buff, c.Domain...)
	}

	if !c.Expires.IsZero() {
		buff = append(buff, "; Expires="...)
		buff = headers.AppendDate(buff, c.Expires)
	}

	if c.MaxAge != 0 {
		buff = append(buff, "; Max-Age="...)
		buff = strconv.AppendInt(buff, int64(max(c.MaxAge, 0)), 10)
	}

	if len(c.SameSite) > 0 {
		buff = append(buff, "; SameSite="...)
		buff = append(buff, c.SameSite...)
	}

	if c.Secure {
		buff = append(buff, "; Secure"...)
	}

	if c.HttpOnly {
		buff = append(buff, "; HttpOnly"...)
	}

	return string(buff)
}

// ParseSetting parses a Set-Cookie value. Unknown attributes are ignored, malformed
// known attributes as well. Only a missing name is an error.
func ParseSetting(value string) (Cookie, error) {
	pair, attrs, _ := strings.Cut(value, ";")
	name, val, found := strings.Cut(pair, "=")
	name = strutil.StripWS(name)
	if !found || len(name) == 0 {
		return Cookie{}, ErrBadCookie
	}

	c := New(name, strutil.Unquote(strutil.StripWS(val)))

	for len(attrs) > 0 {
		var attr string
		attr, attrs, _ = strings.Cut(attrs, ";")
		key, val, _ := strings.Cut(attr, "=")
		key, val = strutil.StripWS(key), strutil.StripWS(val)

		switch {
		case strutil.CmpFold(key, "Path"):
			c.Path = val
		case strutil.CmpFold(key, "Domain"):
			c.Domain = val
		case strutil.CmpFold(key, "Expires"):
			if expires, ok := headers.ParseDate(val); ok {
				c.Expires = expires
			}
		case strutil.CmpFold(key, "Max-Age"):
			if maxAge, err := strconv.Atoi(val); err == nil {
				if maxAge <= 0 {
					maxAge = -1
				}

				c.MaxAge = maxAge
			}
		case strutil.CmpFold(key, "SameSite"):
			c.SameSite = val
		case strutil.CmpFold(key, "Secure"):
			c.Secure = true
		case strutil.CmpFold(key, "HttpOnly"):
			c.HttpOnly = true
		}
	}

	return c, nil
}

type Builder struct {
	cookie Cookie
}

// Build is a chainable constructor for cookies. A preferred way of instantiation
func Build(name, value string) Builder {
	return Builder{New(name, value)}
}

func (b Builder) Path(path string) Builder {
	b.cookie.Path = path
	return b
}

func (b Builder) Domain(domain string) Builder {
	b.cookie.Domain = domain
	return b
}

func (b Builder) Expires(expires time.Time) Builder {
	b.cookie.Expires = expires
	return b
}

func (b Builder) MaxAge(maxAge int) Builder {
	b.cookie.MaxAge = maxAge
	return b
}

func (b Builder) SameSite(sameSite SameSite) Builder {
	b.cookie.SameSite = sameSite
	return b
}

func (b Builder) Secure(secure bool) Builder {
	b.cookie.Secure = secure
	return b
}

func (b Builder) HttpOnly(httpOnly bool) Builder {
	b.cookie.HttpOnly = httpOnly
	return b
}

// Cookie returns the built cookie instance
func (b Builder) Cookie() Cookie {
	return b.cookie
}

type SameSite = string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)
