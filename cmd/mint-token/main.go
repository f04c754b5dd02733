package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/term"
)

// Development helper: mints an identity token with the same claim shape the
// server validates. In production tokens come from the identity service.
func main() {
	cfg := config.Load()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Mint Development Token ===")

	fmt.Print("Enter User ID: ")
	userIDStr, _ := reader.ReadString('\n')
	userID, err := strconv.Atoi(strings.TrimSpace(userIDStr))
	if err != nil || userID <= 0 {
		fmt.Println("Error: User ID must be a positive integer")
		return
	}

	fmt.Print("Enter Role (USER/STUDENT/ADMIN/SUPERVISOR) [STUDENT]: ")
	roleStr, _ := reader.ReadString('\n')
	roleStr = strings.TrimSpace(roleStr)
	if roleStr == "" {
		roleStr = "STUDENT"
	}
	role, err := model.ParseRole(strings.ToUpper(roleStr))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	// Prefer the configured secret; fall back to a hidden prompt so the
	// secret never lands in shell history.
	secret := cfg.JWTSecret
	if os.Getenv("JWT_SECRET") == "" {
		fmt.Print("Enter JWT Secret (hidden, empty = config default): ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Printf("Error reading secret: %v\n", err)
			return
		}
		if len(raw) > 0 {
			secret = string(raw)
		}
	}

	now := time.Now()
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTExpiry)),
		},
		UserID: userID,
		Role:   string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Printf("Error signing token: %v\n", err)
		return
	}

	fmt.Println("\nToken (valid for", cfg.JWTExpiry.String()+"):")
	fmt.Println(signed)
}
