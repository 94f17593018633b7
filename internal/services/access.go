package services

import (
	"context"
	"fmt"
	"time"

	"family-tree-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const ownerTokenExpDays = 30

// shareLinkResolver is the slice of the share-link repository the access
// gate needs.
type shareLinkResolver interface {
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)
	IncrementAccessCount(ctx context.Context, id string) error
}

// AccessService resolves a session's credentials into a capability.
type AccessService struct {
	links     shareLinkResolver
	jwtSecret string
}

// NewAccessService creates a new access service
func NewAccessService(links shareLinkResolver, jwtSecret string) *AccessService {
	return &AccessService{
		links:     links,
		jwtSecret: jwtSecret,
	}
}

// GenerateOwnerJWT generates a signed owner token
func (s *AccessService) GenerateOwnerJWT(ownerID string) (string, error) {
	claims := jwt.MapClaims{
		"owner_id": ownerID,
		"exp":      time.Now().AddDate(0, 0, ownerTokenExpDays).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateOwnerJWT validates an owner token and returns the owner ID
func (s *AccessService) ValidateOwnerJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	ownerID, ok := claims["owner_id"].(string)
	if !ok {
		return "", fmt.Errorf("owner_id not found in token")
	}
	return ownerID, nil
}

// Resolve derives the capability for a request without side effects.
// A valid owner JWT wins over everything; otherwise a share token is
// matched against the link set. A malformed, unknown, inactive or expired
// token yields none, never a silent upgrade.
func (s *AccessService) Resolve(ctx context.Context, ownerJWT, shareToken string) models.Capability {
	if ownerJWT != "" {
		if _, err := s.ValidateOwnerJWT(ownerJWT); err == nil {
			return models.CapabilityOwner
		}
	}
	if shareToken == "" {
		return models.CapabilityNone
	}

	link, err := s.lookup(ctx, shareToken)
	if err != nil {
		return models.CapabilityNone
	}
	return models.Capability(link.Role)
}

// ResolveSession performs the once-per-page-load resolution: same rules as
// Resolve, but a successful share-token match also increments the link's
// access counter. The increment is fire-and-forget; failing to record it
// must not block access.
func (s *AccessService) ResolveSession(ctx context.Context, ownerJWT, shareToken string) (models.Capability, *models.ShareLink) {
	if ownerJWT != "" {
		if _, err := s.ValidateOwnerJWT(ownerJWT); err == nil {
			return models.CapabilityOwner, nil
		}
	}
	if shareToken == "" {
		return models.CapabilityNone, nil
	}

	link, err := s.lookup(ctx, shareToken)
	if err != nil {
		return models.CapabilityNone, nil
	}

	go func(id string) {
		incCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.links.IncrementAccessCount(incCtx, id); err != nil {
			log.Warn().Err(err).Str("share_link_id", id).Msg("Failed to record share link access")
		}
	}(link.ID)

	return models.Capability(link.Role), link
}

func (s *AccessService) lookup(ctx context.Context, token string) (*models.ShareLink, error) {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.IsActive {
		return nil, fmt.Errorf("share link is inactive")
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("share link is expired")
	}
	if !link.Role.Valid() {
		return nil, fmt.Errorf("share link has unknown role %q", link.Role)
	}
	return link, nil
}
