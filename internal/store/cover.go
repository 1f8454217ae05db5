/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	"image/png"
	"time"

	"golang.org/x/image/draw"
)

// ThumbMaxDim bounds the longer edge of generated cover thumbnails.
const ThumbMaxDim = 256

// Cover is an opaque image blob attached to a series or issue, plus its thumbnail.
type Cover struct {
	Image []byte
	Thumb []byte // PNG; empty when the image could not be decoded
}

// MakeThumbnail decodes img and scales it so the longer edge is at most maxDim.
// Images already within bounds are re-encoded unscaled.
func MakeThumbnail(img []byte, maxDim int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty cover image")
	}
	tw, th := w, h
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			tw, th = maxDim, max(1, h*maxDim/w)
		} else {
			tw, th = max(1, w*maxDim/h), maxDim
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Store) thumbFor(img []byte) []byte {
	if len(img) == 0 {
		return nil
	}
	th, err := MakeThumbnail(img, ThumbMaxDim)
	if err != nil {
		s.log.Debug("cover thumbnail skipped", "err", err)
		return nil
	}
	return th
}

// SetSeriesCover stores (or with a nil img clears) a series cover.
func (s *Store) SetSeriesCover(ctx context.Context, id string, img []byte, t time.Time) error {
	return s.setCover(ctx, "series", id, img, t)
}

// SetIssueCover stores (or with a nil img clears) an issue cover.
func (s *Store) SetIssueCover(ctx context.Context, id string, img []byte, t time.Time) error {
	return s.setCover(ctx, "issues", id, img, t)
}

func (s *Store) setCover(ctx context.Context, table, id string, img []byte, t time.Time) error {
	var cover, thumb any
	if len(img) > 0 {
		cover = img
		if th := s.thumbFor(img); th != nil {
			thumb = th
		}
	}
	return s.execOne(ctx, `UPDATE `+table+` SET cover=?, cover_thumb=?, updated_at=? WHERE id=?`, cover, thumb, formatTime(t), id)
}

// SeriesCover returns the cover of a series; a missing cover yields an empty Cover.
func (s *Store) SeriesCover(ctx context.Context, id string) (Cover, error) {
	return s.cover(ctx, "series", id)
}

// IssueCover returns the cover of an issue; a missing cover yields an empty Cover.
func (s *Store) IssueCover(ctx context.Context, id string) (Cover, error) {
	return s.cover(ctx, "issues", id)
}

func (s *Store) cover(ctx context.Context, table, id string) (Cover, error) {
	var c Cover
	err := s.queryRow(ctx, `SELECT cover, cover_thumb FROM `+table+` WHERE id=?`, id).Scan(&c.Image, &c.Thumb)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("read cover: %w", err)
	}
	return c, nil
}
