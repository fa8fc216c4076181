package http1

type parserState uint8

const (
	eRequestLine parserState = iota
	eHeaders
	eBody
	eChunkLength
	eChunkData
	eTrailer
	eDone
	eError
)

func (s parserState) String() string {
	switch s {
	case eRequestLine:
		return "LINE"
	case eHeaders:
		return "HEADERS"
	case eBody:
		return "BODY"
	case eChunkLength:
		return "CHUNK_SIZE"
	case eChunkData:
		return "CHUNK_BODY"
	case eTrailer:
		return "CHUNK_TRAILER"
	case eDone:
		return "DONE"
	case eError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
