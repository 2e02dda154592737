// Package attachments enforces the attachment rules of a guild: blocked
// file extensions and a maximum size.
package attachments

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// DefaultBlocked are the extensions rejected when none are configured.
var DefaultBlocked = []string{".exe", ".scr", ".bat", ".cmd", ".msi", ".jar"}

// Actions is the part of the platform the inspector needs.
type Actions interface {
	SendNotice(ctx context.Context, channelID string, notice models.Notice) (string, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Inspector removes messages carrying disallowed attachments.
type Inspector struct {
	actions  Actions
	blocked  map[string]bool
	maxBytes int
}

var _ moderation.AttachmentInspector = (*Inspector)(nil)

// New builds an inspector. Extensions are matched case-insensitively, with
// or without the leading dot. maxBytes <= 0 disables the size check.
func New(actions Actions, blocked []string, maxBytes int) *Inspector {
	if len(blocked) == 0 {
		blocked = DefaultBlocked
	}
	set := make(map[string]bool, len(blocked))
	for _, ext := range blocked {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return &Inspector{actions: actions, blocked: set, maxBytes: maxBytes}
}

// Violation returns why a is not allowed, or "" when it is.
func (i *Inspector) Violation(a models.Attachment) string {
	ext := strings.ToLower(path.Ext(a.Filename))
	if i.blocked[ext] {
		return fmt.Sprintf("el tipo de archivo %s no está permitido", ext)
	}
	if i.maxBytes > 0 && a.Size > i.maxBytes {
		return fmt.Sprintf("el archivo %s supera el tamaño máximo de %d MB", a.Filename, i.maxBytes/(1024*1024))
	}
	return ""
}

// Inspect deletes msg and explains why when any attachment is disallowed.
// Errors are platform failures; a disallowed attachment is not an error.
func (i *Inspector) Inspect(ctx context.Context, msg *models.Message) error {
	var reasons []string
	for _, a := range msg.Attachments {
		if r := i.Violation(a); r != "" {
			reasons = append(reasons, r)
		}
	}
	if len(reasons) == 0 {
		return nil
	}

	if err := i.actions.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		return fmt.Errorf("borrando mensaje con adjunto no permitido: %w", err)
	}
	_, err := i.actions.SendNotice(ctx, msg.ChannelID, models.Notice{
		Title:       "Archivo no permitido",
		Description: fmt.Sprintf("<@%s> tu mensaje fue eliminado: %s.", msg.AuthorID, strings.Join(reasons, "; ")),
		Color:       0xFFCC00,
	})
	if err != nil {
		return fmt.Errorf("avisando adjunto no permitido: %w", err)
	}
	return nil
}
