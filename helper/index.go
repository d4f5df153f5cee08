package helper

import (
	"fmt"
	"log"
	"storefront/model"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const accessTokenTTL = 60 * time.Minute

func GenerateAccessToken(tokenClaim model.TokenClaim, secret []byte) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["customerId"] = tokenClaim.CustomerId
	if tokenClaim.Role != "" {
		claims["role"] = tokenClaim.Role
	}
	claims["exp"] = time.Now().Add(accessTokenTTL).Unix()

	return token.SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
}

// GetInfoCustomerFromToken reads the claims stored under Locals("user").
// Guests get a zero claim.
func GetInfoCustomerFromToken(c *fiber.Ctx) model.TokenClaim {
	var guestClaim model.TokenClaim

	userToken, ok := c.Locals("user").(*jwt.Token)
	if !ok || userToken == nil {
		return guestClaim
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("Invalid claims type, treating as guest")
		return guestClaim
	}

	customerId, _ := claims["customerId"].(float64)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if customerId <= 0 && role == "" {
		return guestClaim
	}

	return model.TokenClaim{
		CustomerId: uint(customerId),
		Username:   username,
		Role:       role,
	}
}
