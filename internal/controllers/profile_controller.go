package controllers

import (
	"encoding/binary"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mkopo_loans/internal/models"
	"mkopo_loans/internal/stores"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// toProfileResponse mirrors models.Profile but renders the residence
// geotag as a GeoJSON string instead of raw WKB.
func toProfileResponse(p models.Profile) gin.H {
	geoJSON, err := convertWKBToGeoJSON(p.ResidenceLocation)
	if err != nil {
		logrus.WithError(err).Warn("profile residence geotag could not be rendered")
	}

	return gin.H{
		"ID":                       p.ID,
		"CreatedAt":                p.CreatedAt,
		"UpdatedAt":                p.UpdatedAt,
		"user_id":                  p.UserID,
		"full_name":                p.FullName,
		"id_number":                p.IDNumber,
		"date_of_birth":            p.DateOfBirth,
		"gender":                   p.Gender,
		"marital_status":           p.MaritalStatus,
		"nationality":              p.Nationality,
		"address":                  p.Address,
		"county":                   p.County,
		"sub_county":               p.SubCounty,
		"village":                  p.Village,
		"phone":                    p.Phone,
		"alternate_phone":          p.AlternatePhone,
		"residence_location":       geoJSON,
		"employment_status":        p.EmploymentStatus,
		"employer":                 p.Employer,
		"occupation":               p.Occupation,
		"monthly_income":           p.MonthlyIncome,
		"secondary_income":         p.SecondaryIncome,
		"pay_frequency":            p.PayFrequency,
		"bank_name":                p.BankName,
		"bank_branch":              p.BankBranch,
		"bank_account_number":      p.BankAccountNumber,
		"mobile_money_number":      p.MobileMoneyNumber,
		"next_of_kin_name":         p.NextOfKinName,
		"next_of_kin_relationship": p.NextOfKinRelationship,
		"next_of_kin_phone":        p.NextOfKinPhone,
		"next_of_kin_id_number":    p.NextOfKinIDNumber,
		"next_of_kin_address":      p.NextOfKinAddress,
		"id_document_url":          p.IDDocumentURL,
		"selfie_url":               p.SelfieURL,
		"payslip_url":              p.PayslipURL,
		"statement_url":            p.StatementURL,
		"has_documents":            p.HasDocuments(),
	}
}

// GetMyProfile returns the authenticated borrower's KYC record.
func GetMyProfile(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	profile, err := stores.Profiles.Get(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch profile: " + err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toProfileResponse(*profile)})
}

// UpdateMyProfile merges the submitted KYC fields into the profile.
// Omitted fields are left untouched, so each form section can save on
// its own. The residence geotag arrives as a GeoJSON point.
func UpdateMyProfile(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	var input struct {
		stores.ProfileUpdate
		ResidenceLocation *string `json:"residence_location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile input: " + err.Error()})
		return
	}

	patch := input.ProfileUpdate
	if input.ResidenceLocation != nil {
		wkbBytes, err := parseGeoJSONPoint(*input.ResidenceLocation)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid residence_location GeoJSON: " + err.Error()})
			return
		}
		patch.ResidenceLocation = wkbBytes
	}

	profile, err := stores.Profiles.Update(userID, patch)
	if err != nil {
		logrus.WithError(err).Error("UpdateMyProfile: merge failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toProfileResponse(*profile)})
}

// parseGeoJSONPoint parses a GeoJSON point into WKB bytes for storage.
func parseGeoJSONPoint(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// convertWKBToGeoJSON converts stored WKB bytes into a GeoJSON string.
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
