package delivery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakrise/docstamp/internal/docstore"
)

func TestValidateRecipient(t *testing.T) {
	assert.NoError(t, ValidateRecipient("ada@example.com"))
	assert.ErrorIs(t, ValidateRecipient(""), ErrEmptyRecipient)
	assert.ErrorIs(t, ValidateRecipient("   "), ErrEmptyRecipient)
	assert.ErrorIs(t, ValidateRecipient("\t\n"), ErrEmptyRecipient)
}

func TestPostContent(t *testing.T) {
	msg := Message{
		Recipient: "ada@example.com",
		Subject:   "Your document",
		Body:      "Attached.",
		File:      docstore.FileRef{ID: "INV-001.pdf", Path: "/out/INV-001.pdf"},
	}

	raw, err := postContent(msg)
	require.NoError(t, err)

	var payload map[string]struct {
		Title   string                `json:"title"`
		Content [][]map[string]string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	post := payload["zh_cn"]
	assert.Equal(t, "Your document", post.Title)
	require.Len(t, post.Content, 1)
	text := post.Content[0][0]["text"]
	assert.Contains(t, text, "Attached.")
	assert.Contains(t, text, "INV-001.pdf")
}

func TestPostContentWithoutFile(t *testing.T) {
	raw, err := postContent(Message{Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.NotContains(t, raw, "Attachment:")
}
