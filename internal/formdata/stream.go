package formdata

import "strings"

type stream struct {
	data string
}

func newStream(data string) stream {
	return stream{data: data}
}

// FindSubstr returns the offset of the substring, or -1.
func (s *stream) FindSubstr(str string) int {
	return strings.Index(s.data, str)
}

func (s *stream) Compare(offset int, str string) bool {
	if len(s.data) < len(str)+offset {
		return false
	}

	return s.data[offset:offset+len(str)] == str
}

func (s *stream) CompareFold(offset int, str string) bool {
	if len(s.data) < len(str)+offset {
		return false
	}

	return strings.EqualFold(s.data[offset:offset+len(str)], str)
}

func (s *stream) Consume(str string) bool {
	if s.Compare(0, str) {
		s.Advance(len(str))
		return true
	}

	return false
}

func (s *stream) ConsumeFold(str string) bool {
	if s.CompareFold(0, str) {
		s.Advance(len(str))
		return true
	}

	return false
}

func (s *stream) Advance(n int) (leftBehind string) {
	leftBehind, s.data = s.data[:n], s.data[n:]
	return leftBehind
}

// AdvanceLine consumes the line including its terminator and returns it without one.
func (s *stream) AdvanceLine() (line string, ok bool) {
	newline := strings.IndexByte(s.data, '\n')
	if newline == -1 {
		return "", false
	}

	line = s.Advance(newline + 1)[:newline]
	return strings.TrimSuffix(line, "\r"), true
}

func (s *stream) SkipWhitespaces() {
	for i := 0; i < len(s.data); i++ {
		switch s.data[i] {
		case ' ', '\t':
		default:
			s.Advance(i)
			return
		}
	}

	s.Advance(len(s.data))
}

func (s *stream) Empty() bool {
	return len(s.data) == 0
}
