package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/diewo77/cobbler-crm/internal/models"
)

// ListParams filters GET /enquiries. Zero fields are not sent.
type ListParams struct {
	Stage  models.Stage
	Status models.EnquiryStatus
	Search string
	Page   int
	Limit  int
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Stage != "" {
		q.Set("stage", string(p.Stage))
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Enquiries is the adapter for /enquiries.
type Enquiries struct{ c *Client }

func (c *Client) Enquiries() *Enquiries { return &Enquiries{c: c} }

func enquiryPath(id int) string { return fmt.Sprintf("/enquiries/%d", id) }

func (a *Enquiries) List(ctx context.Context, p ListParams) (Page[models.Enquiry], error) {
	const path = "/enquiries"
	env, err := a.c.do(ctx, http.MethodGet, path, p.query(), nil)
	if err != nil {
		return Page[models.Enquiry]{}, err
	}
	items, err := decodeList[models.Enquiry](a.c, path, env)
	if err != nil {
		return Page[models.Enquiry]{}, err
	}
	return Page[models.Enquiry]{
		Items:      items,
		Total:      env.Total,
		Page:       env.Page,
		Limit:      env.Limit,
		TotalPages: env.TotalPages,
	}, nil
}

// ListAll walks every page of the filtered list.
func (a *Enquiries) ListAll(ctx context.Context, p ListParams) ([]models.Enquiry, error) {
	if p.Limit == 0 {
		p.Limit = 100
	}
	all := []models.Enquiry{}
	for p.Page = 1; ; p.Page++ {
		page, err := a.List(ctx, p)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.Page >= page.TotalPages || len(page.Items) == 0 {
			return all, nil
		}
	}
}

// Get returns nil when the enquiry does not exist.
func (a *Enquiries) Get(ctx context.Context, id int) (*models.Enquiry, error) {
	path := enquiryPath(id)
	env, err := a.c.do(ctx, http.MethodGet, path, nil, nil)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Enquiry](a.c, path, env)
}

func (a *Enquiries) Create(ctx context.Context, e models.Enquiry) (*models.Enquiry, error) {
	const path = "/enquiries"
	env, err := a.c.do(ctx, http.MethodPost, path, nil, e)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Enquiry](a.c, path, env)
}

// Update sends a partial update. Returns nil when the enquiry does not exist.
func (a *Enquiries) Update(ctx context.Context, id int, patch map[string]any) (*models.Enquiry, error) {
	return a.write(ctx, http.MethodPut, enquiryPath(id), patch)
}

// Delete returns false when the enquiry did not exist.
func (a *Enquiries) Delete(ctx context.Context, id int) (bool, error) {
	_, err := a.c.do(ctx, http.MethodDelete, enquiryPath(id), nil, nil)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (a *Enquiries) UpdateStatus(ctx context.Context, id int, status models.EnquiryStatus) (*models.Enquiry, error) {
	return a.write(ctx, http.MethodPatch, enquiryPath(id)+"/status", models.StatusRequest{Status: status})
}

// Transition moves the enquiry to stage. An illegal move comes back as a
// 409 *APIError.
func (a *Enquiries) Transition(ctx context.Context, id int, stage models.Stage) (*models.Enquiry, error) {
	return a.write(ctx, http.MethodPatch, enquiryPath(id)+"/stage", models.StageRequest{Stage: stage})
}

func (a *Enquiries) write(ctx context.Context, method, path string, body any) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, method, path, body)
}

// writeEnquiry sends body and decodes the updated enquiry; 404 is nil.
func writeEnquiry(ctx context.Context, c *Client, method, path string, body any) (*models.Enquiry, error) {
	env, err := c.do(ctx, method, path, nil, body)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Enquiry](c, path, env)
}

// listEnquiries fetches a non-paginated stage list.
func listEnquiries(ctx context.Context, c *Client, path string) ([]models.Enquiry, error) {
	env, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Enquiry](c, path, env)
}
