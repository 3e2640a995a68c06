package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

// confirmExhibition hands the selected candidate off outside the event loop;
// the handoff writes to storage.
func confirmExhibition(ctx context.Context, s *workflow.Session) tea.Cmd {
	return func() tea.Msg {
		ex, err := s.ConfirmExhibition(ctx)
		if err != nil {
			err = common.NewUserError("Could not request the exhibition", err)
		}
		return exhibitionConfirmedMsg{exhibition: ex, err: err}
	}
}

func toggleFavorite(ctx context.Context, s *workflow.Session, id string) tea.Cmd {
	return func() tea.Msg {
		on, err := s.ToggleFavorite(ctx, id)
		if err != nil {
			err = common.NewUserError(fmt.Sprintf("Could not update favorite %s", id), err)
		}
		return favoriteToggledMsg{id: id, on: on, err: err}
	}
}
