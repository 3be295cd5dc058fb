package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// CreateLead inserts one record into sObjectName (normally "Lead") and
// returns the new Salesforce ID. LastName and Company are required by the
// standard Lead object.
func CreateLead(ctx context.Context, c Client, sObjectName string, fields map[string]any) (string, error) {
	if sObjectName == "" {
		return "", eris.New("sf: sobject is required")
	}
	if fields["LastName"] == nil || fields["LastName"] == "" {
		return "", eris.New("sf: lead LastName is required")
	}
	id, err := c.InsertOne(ctx, sObjectName, fields)
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: create %s", sObjectName))
	}
	return id, nil
}
