package linkcheck

import (
	"context"

	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// Result is the verification outcome for one registered link.
type Result struct {
	DocID    string
	Language string
	URL      string
	OK       bool
	Reason   string // Failure detail, empty when OK
}

// Verifier sweeps a set of registered links and reports dead ones.
type Verifier struct {
	client *Client
	logger *logger.Logger
}

// NewVerifier creates a verifier using the given client.
func NewVerifier(client *Client, log *logger.Logger) *Verifier {
	return &Verifier{client: client, logger: log.WithModule("linkcheck")}
}

// VerifyAll checks every link sequentially, respecting the client's rate
// limit. Returns one result per link; stops early on context cancellation.
func (v *Verifier) VerifyAll(ctx context.Context, links []*storage.Link) ([]Result, error) {
	results := make([]Result, 0, len(links))

	for _, link := range links {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		ok, reason, err := v.client.Check(ctx, link.URL)
		if err != nil {
			ok = false
			reason = err.Error()
		}

		result := Result{
			DocID:    link.DocID(),
			Language: link.Language,
			URL:      link.URL,
			OK:       ok,
			Reason:   reason,
		}
		results = append(results, result)

		if !ok {
			v.logger.WithFields(map[string]any{
				"doc_id":   result.DocID,
				"language": result.Language,
				"reason":   result.Reason,
			}).Warn("dead document link")
		}
	}

	return results, nil
}

// Dead filters results down to the failed links.
func Dead(results []Result) []Result {
	var dead []Result
	for _, r := range results {
		if !r.OK {
			dead = append(dead, r)
		}
	}
	return dead
}
