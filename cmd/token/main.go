// Command token issues a signed access token for a business or an admin.
// It replaces a login flow during local development and operations.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sitepay/internal/config"
	"sitepay/internal/models"
	"sitepay/internal/utils"
)

func main() {
	config.LoadEnv()

	businessID := flag.String("business", "", "business the token is scoped to")
	userID := flag.String("user", "", "subject of the token")
	role := flag.String("role", models.RoleOwner, "owner, staff or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user must be set")
	}
	switch *role {
	case models.RoleOwner, models.RoleStaff:
		if *businessID == "" {
			log.Fatal("-business must be set for owner and staff tokens")
		}
	case models.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	token, err := utils.GenerateToken(os.Getenv("JWT_SECRET"), models.BusinessClaims{
		BusinessID: *businessID,
		UserID:     *userID,
		Role:       *role,
	}, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
