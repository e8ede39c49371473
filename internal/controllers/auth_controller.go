package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"mkopo_loans/internal/middleware"
	"mkopo_loans/internal/models"
	"mkopo_loans/internal/stores"
)

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	// Optional KYC seed collected on the signup form
	IDNumber string `json:"id_number"`
	County   string `json:"county"`
}

// SignupUser registers a borrower and seeds a sparse KYC profile. Admins
// are never created through this endpoint; they are seeded at boot.
func SignupUser(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	user, err := stores.Users.Create(models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Phone:    input.Phone,
		Role:     "user",
	})
	if err != nil {
		if err == stores.ErrEmailTaken {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user: " + err.Error()})
		return
	}

	seed := stores.ProfileUpdate{FullName: &input.Name}
	if input.Phone != "" {
		seed.Phone = &input.Phone
	}
	if input.IDNumber != "" {
		seed.IDNumber = &input.IDNumber
	}
	if input.County != "" {
		seed.County = &input.County
	}
	if _, err := stores.Profiles.Update(user.ID, seed); err != nil {
		logrus.WithError(err).Error("SignupUser: could not seed profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create profile"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
		"next":  "/kyc", // new accounts go straight to KYC collection
	})
}

// LoginUser authenticates and tells the client where to land: admins on
// the review console, borrowers on their dashboard.
func LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := stores.Users.GetByEmail(body.Email)
	if err != nil {
		if err == stores.ErrUserNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store error: " + err.Error()})
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	next := "/dashboard"
	if user.Role == "admin" {
		next = "/admin/loans"
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
		"next":  next,
	})
}

// LogoutUser acknowledges sign-out. Tokens are stateless, so the client
// simply discards its copy.
func LogoutUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// RequestPasswordReset issues a short-lived reset token. The response is
// identical whether or not the account exists, so the endpoint cannot be
// used to enumerate emails. Delivery of the token is a mailer concern;
// here it only reaches the application log.
func RequestPasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if user, err := stores.Users.GetByEmail(body.Email); err == nil {
		if token, err := middleware.GenerateResetToken(user.ID); err == nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID}).
				Infof("password reset token issued: %s", token)
		} else {
			logrus.WithError(err).Error("RequestPasswordReset: token generation failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "if that account exists, reset instructions have been sent"})
}

// ConfirmPasswordReset consumes a reset token and stores the new hash.
func ConfirmPasswordReset(c *gin.Context) {
	var body struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := middleware.ParseResetToken(body.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	hash, err := hashPassword(body.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}
	if err := stores.Users.UpdatePassword(userID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func prepareUserResponse(user models.User) gin.H {
	return gin.H{
		"ID":        user.ID,
		"CreatedAt": user.CreatedAt,
		"name":      user.Name,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
	}
}
