package server

import (
	"context"
	"time"

	"github.com/diewo77/cobbler-crm/internal/apiclient"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/poller"
	"github.com/sirupsen/logrus"
)

// RemoteEnquiries feeds the dashboard from a poller over the remote
// enquiry list.
type RemoteEnquiries struct {
	Poller *poller.Poller[models.Enquiry]
}

// NewRemoteEnquiries builds the poller; call Poller.Start to begin fetching.
func NewRemoteEnquiries(c *apiclient.Client, interval time.Duration, log *logrus.Logger) *RemoteEnquiries {
	api := c.Enquiries()
	fetch := func(ctx context.Context) ([]models.Enquiry, error) {
		return api.ListAll(ctx, apiclient.ListParams{})
	}
	return &RemoteEnquiries{Poller: poller.New("enquiries", fetch, interval, log)}
}

// ListEnquiries returns the last good snapshot. Before the first
// successful fetch it reports the fetch error, if any.
func (s RemoteEnquiries) ListEnquiries(context.Context) ([]models.Enquiry, error) {
	if s.Poller.Version() == 0 {
		if err := s.Poller.Err(); err != nil {
			return nil, err
		}
	}
	return s.Poller.Items(), nil
}
