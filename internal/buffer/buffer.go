package buffer

// Buffer accumulates a message head as a series of segments (tokens of the start line,
// header keys and values) in a single contiguous memory. The total amount of stored
// bytes is limited, so an untrusted peer can't make it grow unbounded.
//
// Segments returned by Finish stay valid until Clear is called, even if the buffer grows
// meanwhile.
type Buffer struct {
	memory  []byte
	begin   int
	maxSize int
}

func New(initialSize, maxSize int) *Buffer {
	return &Buffer{
		memory:  make([]byte, 0, min(initialSize, maxSize)),
		maxSize: maxSize,
	}
}

// Append writes data into the current segment. If the limit is exceeded, nothing is
// written and false is returned.
func (b *Buffer) Append(elements []byte) (ok bool) {
	if len(b.memory)+len(elements) > b.maxSize {
		return false
	}

	b.memory = append(b.memory, elements...)
	return true
}

// AppendByte writes a single byte, checking whether it won't exceed the limit.
func (b *Buffer) AppendByte(c byte) (ok bool) {
	if len(b.memory) >= b.maxSize {
		return false
	}

	b.memory = append(b.memory, c)
	return true
}

// SegmentLength returns a number of bytes written into the current segment.
func (b *Buffer) SegmentLength() int {
	return len(b.memory) - b.begin
}

// Len returns the total number of stored bytes across all the segments.
func (b *Buffer) Len() int {
	return len(b.memory)
}

// Trunc truncates the last n bytes from the current segment, guarantying that data of previous
// segments stays intact.
func (b *Buffer) Trunc(n int) {
	b.memory = b.memory[:len(b.memory)-min(n, b.SegmentLength())]
}

// Preview returns current segment without completing it.
func (b *Buffer) Preview() []byte {
	return b.memory[b.begin:]
}

// Finish completes current segment, returning its value.
func (b *Buffer) Finish() []byte {
	segment := b.memory[b.begin:len(b.memory):len(b.memory)]
	b.begin = len(b.memory)

	return segment
}

// Clear drops all the segments. Allocated memory is reused.
func (b *Buffer) Clear() {
	b.begin = 0
	b.memory = b.memory[:0]
}
