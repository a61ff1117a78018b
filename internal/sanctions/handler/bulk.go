package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"sdnguard/internal/sanctions/screening"
	"sdnguard/pkg/platform/httputil"
)

// readBulkNames extracts customerNames from a bulk request body. The
// returned message is suitable for a rejected batch result.
func readBulkNames(r *http.Request, maxBatch int) ([]string, string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodyBytes+1))
	if err != nil {
		return nil, "request body could not be read"
	}
	if len(body) > httputil.MaxBodyBytes {
		return nil, "request body too large"
	}
	if !gjson.ValidBytes(body) {
		return nil, "invalid JSON body"
	}

	field := gjson.GetBytes(body, "customerNames")
	if !field.IsArray() || len(field.Array()) == 0 {
		return nil, screening.ErrMsgEmptyBatch
	}

	var names []string
	if err := json.Unmarshal([]byte(field.Raw), &names); err != nil {
		return nil, "customerNames must contain only strings"
	}
	if len(names) > maxBatch {
		return nil, fmt.Sprintf("customerNames must contain at most %d names", maxBatch)
	}
	return names, ""
}
