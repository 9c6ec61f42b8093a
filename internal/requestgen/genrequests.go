package requestgen

import (
	"strconv"
	"strings"

	"github.com/indigo-web/connector/kv"
)

// Headers returns n header fields, the last one being Host. Values are 100 bytes long.
func Headers(n int) *kv.Storage {
	hdrs := kv.NewPrealloc(n)

	for i := 0; i < n-1; i++ {
		hdrs.Add("some-random-header-name-nobody-cares-about"+strconv.Itoa(i), strings.Repeat("b", 100))
	}

	return hdrs.Add("Host", "localhost")
}

func HeadersBlock(hdrs *kv.Storage) (buff []byte) {
	for key, value := range hdrs.Pairs() {
		buff = append(buff, key+": "+value+"\r\n"...)
	}

	return buff
}

// Request renders a complete request head.
func Request(method, uri string, hdrs *kv.Storage) (request []byte) {
	request = append(request, method+" "+uri+" HTTP/1.1\r\n"...)
	request = append(request, HeadersBlock(hdrs)...)

	return append(request, '\r', '\n')
}

// Response renders a complete response head.
func Response(code int, reason string, hdrs *kv.Storage) (response []byte) {
	response = append(response, "HTTP/1.1 "+strconv.Itoa(code)+" "+reason+"\r\n"...)
	response = append(response, HeadersBlock(hdrs)...)

	return append(response, '\r', '\n')
}
