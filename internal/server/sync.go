package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

func missingID(field string) error {
	return errors.NewValidationError(field, "id is required", "")
}

// GetSnapshot returns the user's live records, options and profile.
func (s *Server) GetSnapshot(c *gin.Context) {
	u := currentUser(c)

	var rows []RecordRow
	if err := s.db.Where("user_id = ?", u.ID).
		Order("date DESC").Order("client_created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		respondErr(c, "fetchAll", err)
		return
	}
	var optRows []OptionRow
	if err := s.db.Where("user_id = ?", u.ID).Order("position").Find(&optRows).Error; err != nil {
		respondErr(c, "fetchAll", err)
		return
	}

	snap := model.Snapshot{
		Version:    model.SnapshotVersion,
		Records:    make([]model.PracticeRecord, 0, len(rows)),
		Options:    make([]model.PracticeOption, 0, len(optRows)),
		ExportedAt: s.now().UTC(),
	}
	for i := range rows {
		snap.Records = append(snap.Records, rows[i].toModel())
	}
	for i := range optRows {
		snap.Options = append(snap.Options, optRows[i].toModel())
	}

	var prof ProfileRow
	err := s.db.Where("user_id = ?", u.ID).First(&prof).Error
	switch {
	case err == nil:
		snap.Profile = prof.toModel(u)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		respondErr(c, "fetchAll", err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// PutSnapshot replaces every record and option of the user, and the profile
// when one is given.
func (s *Server) PutSnapshot(c *gin.Context) {
	var snap model.Snapshot
	if !bindJSON(c, &snap, "invalid snapshot") {
		return
	}
	for i := range snap.Records {
		if strings.TrimSpace(snap.Records[i].ID) == "" {
			respondErr(c, "replaceAll", missingID("record"))
			return
		}
	}
	u := currentUser(c)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", u.ID).Delete(&RecordRow{}).Error; err != nil {
			return err
		}
		if len(snap.Records) > 0 {
			rows := make([]RecordRow, 0, len(snap.Records))
			for i := range snap.Records {
				rows = append(rows, recordRow(u.ID, &snap.Records[i]))
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
				return err
			}
		}
		if err := replaceOptions(tx, u.ID, snap.Options); err != nil {
			return err
		}
		if snap.Profile != nil {
			return upsertProfile(tx, u.ID, snap.Profile)
		}
		return nil
	})
	if err != nil {
		respondErr(c, "replaceAll", err)
		return
	}
	logging.Info("snapshot replaced", logging.KeyUserID, u.ID, logging.KeyCount, len(snap.Records))
	c.JSON(http.StatusOK, cloud.CountResponse{Count: len(snap.Records)})
}

func replaceOptions(tx *gorm.DB, userID string, opts []model.PracticeOption) error {
	if err := tx.Where("user_id = ?", userID).Delete(&OptionRow{}).Error; err != nil {
		return err
	}
	if len(opts) == 0 {
		return nil
	}
	rows := make([]OptionRow, 0, len(opts))
	for i := range opts {
		if opts[i].IsSynthetic() {
			continue
		}
		if strings.TrimSpace(opts[i].ID) == "" {
			return missingID("option")
		}
		rows = append(rows, optionRow(userID, i, &opts[i]))
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

func upsertProfile(tx *gorm.DB, userID string, p *model.UserProfile) error {
	row := profileRow(userID, p)
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// UpsertRecords creates or replaces records by id. A soft-deleted record
// with the same id is revived.
func (s *Server) UpsertRecords(c *gin.Context) {
	var req cloud.UpsertRecordsRequest
	if !bindJSON(c, &req, "invalid records") {
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusOK, cloud.CountResponse{})
		return
	}
	u := currentUser(c)
	rows := make([]RecordRow, 0, len(req.Records))
	for i := range req.Records {
		if strings.TrimSpace(req.Records[i].ID) == "" {
			respondErr(c, "upsertRecords", missingID("record"))
			return
		}
		rows = append(rows, recordRow(u.ID, &req.Records[i]))
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
		respondErr(c, "upsertRecords", err)
		return
	}
	c.JSON(http.StatusOK, cloud.CountResponse{Count: len(rows)})
}

// DeleteRecord soft-deletes a record and removes its stored photos. Deleting
// a missing record succeeds with a zero count.
func (s *Server) DeleteRecord(c *gin.Context) {
	var req cloud.DeleteRecordRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		respondErr(c, "deleteRecord", missingID("record"))
		return
	}
	u := currentUser(c)

	var row RecordRow
	err := s.db.Where("user_id = ? AND id = ?", u.ID, req.ID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, cloud.CountResponse{})
		return
	}
	if err != nil {
		respondErr(c, "deleteRecord", err)
		return
	}

	if urls := row.toModel().Photos; len(urls) > 0 {
		var photos []PhotoRow
		if err := s.db.Where("user_id = ? AND url IN ?", u.ID, urls).Find(&photos).Error; err != nil {
			respondErr(c, "deleteRecord", err)
			return
		}
		for i := range photos {
			s.removePhoto(u.ID, &photos[i])
		}
	}

	res := s.db.Where("user_id = ? AND id = ?", u.ID, req.ID).Delete(&RecordRow{})
	if res.Error != nil {
		respondErr(c, "deleteRecord", res.Error)
		return
	}
	c.JSON(http.StatusOK, cloud.CountResponse{Count: int(res.RowsAffected)})
}

// UploadProfile upserts the profile. Avatars are never stored.
func (s *Server) UploadProfile(c *gin.Context) {
	var p model.UserProfile
	if !bindJSON(c, &p, "invalid profile") {
		return
	}
	if strings.TrimSpace(p.ID) == "" {
		respondErr(c, "uploadProfile", missingID("profile"))
		return
	}
	if err := validate.ProfileName(p.Name); err != nil {
		respondErr(c, "uploadProfile", err)
		return
	}
	if err := validate.Signature(p.Signature); err != nil {
		respondErr(c, "uploadProfile", err)
		return
	}
	if err := upsertProfile(s.db, currentUser(c).ID, &p); err != nil {
		respondErr(c, "uploadProfile", err)
		return
	}
	ok(c)
}

// ReplaceOptions overwrites the user's options in order.
func (s *Server) ReplaceOptions(c *gin.Context) {
	var req cloud.OptionsRequest
	if !bindJSON(c, &req, "invalid options") {
		return
	}
	u := currentUser(c)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return replaceOptions(tx, u.ID, req.Options)
	})
	if err != nil {
		respondErr(c, "replaceOptions", err)
		return
	}
	c.JSON(http.StatusOK, cloud.CountResponse{Count: len(req.Options)})
}

// DeleteAccountData removes all of the user's records, options, profile and
// photos. The account itself remains.
func (s *Server) DeleteAccountData(c *gin.Context) {
	u := currentUser(c)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&RecordRow{}, &OptionRow{}, &ProfileRow{}, &PhotoRow{}} {
			if err := tx.Unscoped().Where("user_id = ?", u.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondErr(c, "deleteAccountData", err)
		return
	}
	if err := os.RemoveAll(filepath.Join(s.uploadDir, u.ID)); err != nil {
		logging.Warn("removing photo dir failed", logging.KeyUserID, u.ID, logging.KeyError, err)
	}
	logging.Info("account data deleted", logging.KeyUserID, u.ID)
	ok(c)
}
