package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"locallink/pkg/types"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	t.Parallel()

	s := &Service{sanitizer: bluemonday.StrictPolicy()}

	input := types.PostInput{
		Item:        "<b>Water</b>",
		Description: "<script>alert(1)</script>need water",
		Location:    "  Main St  ",
	}
	s.sanitizeInput(&input)

	require.Equal(t, "Water", input.Item)
	require.Equal(t, "need water", input.Description)
	require.Equal(t, "Main St", input.Location)
}

// A required field made entirely of markup sanitizes to nothing and must be
// rejected, not persisted as an empty string.
func TestCreatePostRejectsMarkupOnlyRequiredFields(t *testing.T) {
	t.Parallel()

	router := newRouter(t)

	form := url.Values{}
	form.Set("type", string(types.PostTypeNeed))
	form.Set("item", "<script>x</script>")
	form.Set("location", "Main St")
	form.Set("contact", "+1 555 0100")

	rec := doForm(t, router, "device_test", "/posts", form.Encode())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Contains(t, body.Fields, "item")
}
