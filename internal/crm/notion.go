package crm

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/studioluxe/leadflow/pkg/notion"
)

// NotionSink creates one page per lead in a Notion database.
type NotionSink struct {
	client  notion.Client
	dbID    string
	timeout time.Duration
}

// NewNotionSink creates a NotionSink. The database id is normalized.
func NewNotionSink(client notion.Client, dbID string, timeout time.Duration) *NotionSink {
	return &NotionSink{client: client, dbID: NormalizeCollectionID(dbID), timeout: timeout}
}

// Name implements Sink.
func (s *NotionSink) Name() string { return "notion" }

// CreateLead implements Sink.
func (s *NotionSink) CreateLead(ctx context.Context, rec Record) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.dbID),
		},
		Properties: notionProperties(rec),
	})
	if err != nil {
		return "", eris.Wrap(err, "crm: create notion page")
	}
	return string(page.ID), nil
}

func notionProperties(rec Record) notionapi.Properties {
	return notionapi.Properties{
		notion.PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: textBlocks(rec.Name),
		},
		notion.PropEmail: notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: rec.Email,
		},
		notion.PropBudget: notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: rec.Budget},
		},
		notion.PropScore: notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(rec.Score),
		},
		notion.PropStatus: notionapi.StatusProperty{
			Type:   notionapi.PropertyTypeStatus,
			Status: notionapi.Status{Name: rec.Status},
		},
		notion.PropGoals: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: textBlocks(rec.Goals),
		},
	}
}

func textBlocks(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
