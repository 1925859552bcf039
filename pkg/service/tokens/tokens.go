package tokens

import (
	"sync"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by Counter
const DefaultEncoding = "cl100k_base"

const charsPerToken = 4

// Counter counts tokens with a tiktoken encoding
type Counter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

var _ interfaces.TokenCounter = &Counter{}

// New loads the named encoding. Loading may fetch the BPE ranks on first use.
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load token encoding", goerr.V("encoding", encoding))
	}
	return &Counter{enc: enc}, nil
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// Estimator approximates four characters per token. It needs no encoding
// data and serves when the encoding cannot be loaded.
type Estimator struct{}

var _ interfaces.TokenCounter = Estimator{}

func (Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// NewOrEstimate returns a Counter for encoding, or an Estimator together
// with the load error when the encoding is unavailable.
func NewOrEstimate(encoding string) (interfaces.TokenCounter, error) {
	counter, err := New(encoding)
	if err != nil {
		return Estimator{}, err
	}
	return counter, nil
}
