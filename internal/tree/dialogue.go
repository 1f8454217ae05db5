/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tree

import (
	"context"

	"comicscript/internal/domain"
	"comicscript/internal/store"
)

// AddCharacter appends a dialogue element after the last one in panel.
func (s *Service) AddCharacter(ctx context.Context, panel *domain.Panel, name, dialogue string) (*domain.Character, error) {
	if panel == nil {
		s.skip("add_character")
		return nil, nil
	}
	var c domain.Character
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		seq, err := tx.MaxCharacterSeq(ctx, panel.ID)
		if err != nil {
			return err
		}
		c = domain.Character{PanelID: panel.ID, Name: name, Dialogue: dialogue, Seq: seq + 1}
		if err := tx.CreateCharacter(ctx, &c); err != nil {
			return err
		}
		return s.touchPanel(ctx, tx, panel.ID, c.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteDialogueElement removes one element. The others keep their ordering keys.
func (s *Service) DeleteDialogueElement(ctx context.Context, c *domain.Character) error {
	if c == nil {
		s.skip("delete_character")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteCharacter(ctx, c.ID); err != nil {
			return err
		}
		return s.touchPanel(ctx, tx, c.PanelID, tx.Now())
	})
}

// MoveDialogueElement relocates the element at position from to position to (both 0-based,
// in display order) and rewrites the ordering keys of the whole panel to 1..n.
// Out-of-range positions leave the panel unchanged.
func (s *Service) MoveDialogueElement(ctx context.Context, panel *domain.Panel, from, to int) error {
	if panel == nil {
		s.skip("move_character")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		chars, err := tx.ListCharacters(ctx, panel.ID)
		if err != nil {
			return err
		}
		n := len(chars)
		if from < 0 || from >= n || to < 0 || to >= n {
			s.skip("move_character")
			return nil
		}
		moved := Move(chars, from, to)
		now := tx.Now()
		for i, c := range moved {
			if c.Seq == i+1 {
				continue
			}
			if err := tx.SetCharacterSeq(ctx, c.ID, i+1, now); err != nil {
				return err
			}
		}
		return s.touchPanel(ctx, tx, panel.ID, now)
	})
}

// Move returns a copy of xs with the element at from relocated to to.
// Callers guarantee both indexes are in range.
func Move[T any](xs []T, from, to int) []T {
	out := make([]T, 0, len(xs))
	out = append(out, xs[:from]...)
	out = append(out, xs[from+1:]...)
	item := xs[from]
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// UpdateDialogue replaces the text of a dialogue element.
func (s *Service) UpdateDialogue(ctx context.Context, c *domain.Character, text string) error {
	if c == nil {
		s.skip("update_dialogue")
		return nil
	}
	upd := *c
	upd.Dialogue = text
	return s.writeCharacter(ctx, c, upd)
}

// RenameCharacter changes the speaker name (or CAPTION/SFX sentinel) of an element.
func (s *Service) RenameCharacter(ctx context.Context, c *domain.Character, name string) error {
	if c == nil {
		s.skip("rename_character")
		return nil
	}
	upd := *c
	upd.Name = name
	return s.writeCharacter(ctx, c, upd)
}

func (s *Service) writeCharacter(ctx context.Context, c *domain.Character, upd domain.Character) error {
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		upd.UpdatedAt = tx.Now()
		if err := tx.UpdateCharacter(ctx, upd); err != nil {
			return err
		}
		return s.touchPanel(ctx, tx, upd.PanelID, upd.UpdatedAt)
	})
	if err != nil {
		return err
	}
	*c = upd
	return nil
}
