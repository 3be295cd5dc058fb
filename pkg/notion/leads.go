package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Property names of the lead database.
const (
	PropName   = "Name"
	PropEmail  = "Email"
	PropBudget = "Budget"
	PropScore  = "Score"
	PropStatus = "Status"
	PropGoals  = "Goals"
)

// Lead is the flattened view of one lead page.
type Lead struct {
	PageID    string
	Name      string
	Email     string
	Budget    string
	Score     float64
	Status    string
	CreatedAt time.Time
}

// QueryAll fetches every page matching filter, following pagination
// cursors. Rate limiting is enforced by the Client.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		next := *req
		next.StartCursor = resp.NextCursor
		req = &next
	}
}

// QueryLeadsByStatus returns the leads whose Status equals status, newest
// first.
func QueryLeadsByStatus(ctx context.Context, c Client, dbID, status string) ([]Lead, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: PropStatus,
			Status: &notionapi.StatusFilterCondition{
				Equals: status,
			},
		},
		Sorts: []notionapi.SortObject{{
			Timestamp: notionapi.TimestampCreated,
			Direction: notionapi.SortOrderDESC,
		}},
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: query leads with status %q", status))
	}
	leads := make([]Lead, 0, len(pages))
	for _, p := range pages {
		leads = append(leads, LeadFromPage(p))
	}
	return leads, nil
}

// SetLeadStatus moves a lead page to the given status.
func SetLeadStatus(ctx context.Context, c Client, pageID, status string) error {
	if pageID == "" {
		return eris.New("notion: page id is required")
	}
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			PropStatus: notionapi.StatusProperty{
				Status: notionapi.Status{Name: status},
			},
		},
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: set status of %s to %q", pageID, status))
	}
	return nil
}

// LeadFromPage reads the lead properties of a page. Missing or mistyped
// properties are left zero.
func LeadFromPage(page notionapi.Page) Lead {
	l := Lead{
		PageID:    string(page.ID),
		CreatedAt: page.CreatedTime,
	}

	if prop, ok := page.Properties[PropName].(*notionapi.TitleProperty); ok {
		l.Name = plainText(prop.Title)
	}
	if prop, ok := page.Properties[PropEmail].(*notionapi.EmailProperty); ok {
		l.Email = prop.Email
	}
	if prop, ok := page.Properties[PropBudget].(*notionapi.SelectProperty); ok {
		l.Budget = prop.Select.Name
	}
	if prop, ok := page.Properties[PropScore].(*notionapi.NumberProperty); ok {
		l.Score = prop.Number
	}
	if prop, ok := page.Properties[PropStatus].(*notionapi.StatusProperty); ok {
		l.Status = prop.Status.Name
	}

	l.Name = strings.TrimSpace(l.Name)
	return l
}

func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}
