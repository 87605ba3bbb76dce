package livekit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// Client is the slice of the LiveKit server API the focus group flow needs:
// one room per focus group, and join tokens for the moderator bot.
type Client interface {
	CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error)
	DeleteRoom(ctx context.Context, roomName string) error
	GenerateToken(identity, roomName, participantName string, options *TokenOptions) (string, error)
}

type CreateRoomOptions struct {
	MaxParticipants  int32
	EmptyTimeout     int32 // seconds before an unjoined room is reaped
	DepartureTimeout int32 // seconds after the last participant leaves
	Metadata         string
}

type TokenOptions struct {
	ValidFor       time.Duration
	CanPublish     bool
	CanSubscribe   bool
	CanPublishData bool
	RoomJoin       bool
	Hidden         bool
}

type RoomInfo struct {
	Name            string
	SID             string
	CreationTime    time.Time
	MaxParticipants int32
	Metadata        string
}

// Participants plus the moderator bot.
const defaultRoomCapacity = 21

var (
	defaultRoom = CreateRoomOptions{
		MaxParticipants:  defaultRoomCapacity,
		EmptyTimeout:     600,
		DepartureTimeout: 60,
	}
	defaultGrant = TokenOptions{
		ValidFor:       24 * time.Hour,
		CanPublish:     true,
		CanSubscribe:   true,
		CanPublishData: true,
		RoomJoin:       true,
	}
)

// Dummy credentials used by the mock client when none are configured.
const (
	mockAPIKey    = "devkey"
	mockAPISecret = "mock-secret-mock-secret-mock-secret"
)

// NewClient returns a client backed by the LiveKit RoomService, or an
// in-process stand-in when useMock is set.
func NewClient(url, apiKey, apiSecret string, useMock bool) Client {
	if useMock {
		if apiKey == "" || apiSecret == "" {
			apiKey, apiSecret = mockAPIKey, mockAPISecret
		}
		return &mockClient{keys: credentials{apiKey, apiSecret}}
	}
	return &roomService{
		rooms: lksdk.NewRoomServiceClient(url, apiKey, apiSecret),
		keys:  credentials{apiKey, apiSecret},
	}
}

type credentials struct {
	key, secret string
}

func (k credentials) sign(identity, roomName, displayName string, options *TokenOptions) (string, error) {
	grant := defaultGrant
	if options != nil {
		grant = *options
	}

	token, err := auth.NewAccessToken(k.key, k.secret).
		AddGrant(&auth.VideoGrant{
			RoomJoin:       grant.RoomJoin,
			Room:           roomName,
			CanPublish:     &grant.CanPublish,
			CanSubscribe:   &grant.CanSubscribe,
			CanPublishData: &grant.CanPublishData,
			Hidden:         grant.Hidden,
		}).
		SetIdentity(identity).
		SetName(displayName).
		SetValidFor(grant.ValidFor).
		ToJWT()
	if err != nil {
		return "", fmt.Errorf("sign join token for %s: %w", roomName, err)
	}
	return token, nil
}

func roomOptions(options *CreateRoomOptions) CreateRoomOptions {
	if options == nil {
		return defaultRoom
	}
	return *options
}

type roomService struct {
	rooms *lksdk.RoomServiceClient
	keys  credentials
}

func (c *roomService) CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error) {
	opts := roomOptions(options)
	room, err := c.rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:             name,
		MaxParticipants:  uint32(opts.MaxParticipants),
		EmptyTimeout:     uint32(opts.EmptyTimeout),
		DepartureTimeout: uint32(opts.DepartureTimeout),
		Metadata:         opts.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("create room %s: %w", name, err)
	}
	return &RoomInfo{
		Name:            room.GetName(),
		SID:             room.GetSid(),
		CreationTime:    time.Unix(room.GetCreationTime(), 0),
		MaxParticipants: int32(room.GetMaxParticipants()),
		Metadata:        room.GetMetadata(),
	}, nil
}

func (c *roomService) DeleteRoom(ctx context.Context, roomName string) error {
	if _, err := c.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: roomName}); err != nil {
		return fmt.Errorf("delete room %s: %w", roomName, err)
	}
	return nil
}

func (c *roomService) GenerateToken(identity, roomName, participantName string, options *TokenOptions) (string, error) {
	return c.keys.sign(identity, roomName, participantName, options)
}

// mockClient keeps no server state. Tokens are still real JWTs so the
// webhook and driver paths can verify them.
type mockClient struct {
	keys credentials
}

func (m *mockClient) CreateRoom(_ context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error) {
	opts := roomOptions(options)
	return &RoomInfo{
		Name:            name,
		SID:             "RM_mock_" + uuid.NewString()[:8],
		CreationTime:    time.Now(),
		MaxParticipants: opts.MaxParticipants,
		Metadata:        opts.Metadata,
	}, nil
}

func (m *mockClient) DeleteRoom(context.Context, string) error { return nil }

func (m *mockClient) GenerateToken(identity, roomName, participantName string, options *TokenOptions) (string, error) {
	return m.keys.sign(identity, roomName, participantName, options)
}
