package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

func TestValidate(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name      string
		req       any
		wantField string
	}{
		{"valid board", CreateBoardRequest{Name: "Plan"}, ""},
		{"board without name", CreateBoardRequest{}, "name"},
		{"section without board", CreateSectionRequest{Name: "S"}, "boardId"},
		{"negative width", CreateSectionRequest{BoardID: "b", Name: "S", Width: &neg}, "width"},
		{"unknown card type", CreateCardRequest{BoardID: "b", Type: "video"}, "type"},
		{"empty card type", CreateCardRequest{BoardID: "b"}, ""},
		{"bad anchor", CreateConnectionRequest{BoardID: "b", FromCardID: "a", ToCardID: "c", ToAnchor: "middle"}, "toAnchor"},
		{"connection without target", CreateConnectionRequest{BoardID: "b", FromCardID: "a"}, "toCardId"},
		{"note without title", CreateNoteRequest{Content: "x"}, "title"},
		{"negative height update", UpdateSectionRequest{Height: &neg}, "height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			assert.Equal(t, tt.wantField, apperror.Field(err))
		})
	}
}

func TestValidate_MessageListsEveryField(t *testing.T) {
	err := Validate(CreateConnectionRequest{})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "boardId is required")
	assert.Contains(t, appErr.Message, "fromCardId is required")
	assert.Contains(t, appErr.Message, "toCardId is required")
}

func TestUpdateCardRequest_SectionID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSet bool
		wantNil bool
	}{
		{"absent", `{"posX": 1}`, false, true},
		{"null", `{"sectionId": null}`, true, true},
		{"value", `{"sectionId": "s1"}`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateCardRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.wantSet, req.SectionID.Set)
			assert.Equal(t, tt.wantNil, req.SectionID.Value == nil)
		})
	}
}

func TestCardUpdate_SendsNullSection(t *testing.T) {
	card := model.Card{ID: "c1", Content: model.TextContent{Title: "T"}}

	data, err := json.Marshal(CardUpdate(card))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sectionId":null`)
	assert.Contains(t, string(data), `"title":"T"`)
}

func TestNewCardRequest_Variants(t *testing.T) {
	link := model.Card{ID: "c1", Content: model.LinkContent{Title: "Go", URL: "https://go.dev"}}
	req := NewCardRequest("b1", link)
	assert.Equal(t, "link", req.Type)
	assert.Equal(t, "https://go.dev", req.URL)
	assert.Equal(t, "b1", req.BoardID)

	media := model.Card{ID: "c2", Content: model.MediaContent{ImageURL: "i.png", Caption: "cap"}}
	req = NewCardRequest("b1", media)
	assert.Equal(t, "media", req.Type)
	assert.Equal(t, "i.png", req.ImageURL)
	assert.Equal(t, "cap", req.Caption)
	assert.NoError(t, Validate(req))
}
