// Package testdata builds synthetic bank-SMS corpora for tests.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/jask/smssensor"
)

// Corpus is an in-memory message source backed by a fixed slice.
type Corpus struct {
	msgs []smssensor.RawMessage
}

// NewCorpus wraps msgs, sorted newest first the way device inboxes
// return them.
func NewCorpus(msgs []smssensor.RawMessage) *Corpus {
	sorted := make([]smssensor.RawMessage, len(msgs))
	copy(sorted, msgs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return &Corpus{msgs: sorted}
}

// Messages returns the messages inside [from, to). A zero from means all
// time.
func (c *Corpus) Messages(_ context.Context, from, to time.Time) ([]smssensor.RawMessage, error) {
	var out []smssensor.RawMessage
	for _, m := range c.msgs {
		if !to.IsZero() && !m.Timestamp.Before(to) {
			continue
		}
		if !from.IsZero() && m.Timestamp.Before(from) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Len returns the corpus size.
func (c *Corpus) Len() int { return len(c.msgs) }

// Generate produces n plausible bank notifications spread over the given
// number of days before now, mixing debits, card charges, salary credits
// and promotional noise. The rng seed makes runs reproducible.
func Generate(n int, days int, seed int64, now time.Time) []smssensor.RawMessage {
	rng := rand.New(rand.NewSource(seed))
	merchants := []string{"Swiggy", "Zomato", "Amazon", "BigBasket", "Uber", "Netflix"}
	out := make([]smssensor.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		ts := now.Add(-time.Duration(rng.Intn(days*24*60)) * time.Minute)
		var sender, body string
		switch rng.Intn(6) {
		case 0:
			sender = "AD-HDFCBK-S"
			body = fmt.Sprintf("Rs.%d.50 debited from a/c **%04d on %s to VPA %s@okhdfc (UPI Ref No %d)",
				100+rng.Intn(2000), 1000+rng.Intn(9000), ts.Format("02-01-06"),
				merchants[rng.Intn(len(merchants))], 100000000000+rng.Int63n(899999999999))
		case 1:
			sender = "VM-ICICIB-S"
			body = fmt.Sprintf("ICICI Bank Acct XX%03d debited for Rs %d.00 on %s; %s credited. UPI:%d",
				100+rng.Intn(900), 50+rng.Intn(5000), ts.Format("02-Jan-06"),
				merchants[rng.Intn(len(merchants))], 100000000000+rng.Int63n(899999999999))
		case 2:
			sender = "JD-SBIUPI-S"
			body = fmt.Sprintf("Dear UPI user A/C X%04d debited by %d.0 on date %s trf to %s Refno %d",
				1000+rng.Intn(9000), 20+rng.Intn(1000), ts.Format("02Jan06"),
				merchants[rng.Intn(len(merchants))], 100000000000+rng.Int63n(899999999999))
		case 3:
			sender = "AX-AXISBK-S"
			body = fmt.Sprintf("INR %d.00 debited A/c no. XX%04d %s UPI/P2M/%d/%s",
				100+rng.Intn(3000), 1000+rng.Intn(9000), ts.Format("02-01-06"),
				100000000000+rng.Int63n(899999999999), merchants[rng.Intn(len(merchants))])
		case 4:
			sender = "BZ-OFFERS-P"
			body = "Mega sale! Flat 70% off on fashion. Shop now. T&C apply."
		default:
			sender = "AD-HDFCBK-S"
			body = fmt.Sprintf("Update! INR %d,000.00 deposited in HDFC Bank A/c XX%04d on %s for NEFT Cr-SALARY",
				10+rng.Intn(90), 1000+rng.Intn(9000), ts.Format("02-JAN-06"))
		}
		out = append(out, smssensor.RawMessage{
			Sender:    sender,
			Body:      body,
			Timestamp: ts,
			Channel:   smssensor.ChannelSMS,
		})
	}
	return out
}
