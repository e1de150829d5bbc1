package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Mechanism is the only SASL mechanism this engine negotiates.
const Mechanism = "SCRAM-SHA-256"

// SCRAM drives a SCRAM-SHA-256 exchange per RFC 5802, as selected in
// response to AuthenticationSASL and continued through
// AuthenticationSASLContinue/AuthenticationSASLFinal.
type SCRAM struct {
	username string
	password string
	nonce    string

	serverFirstMessage string
	fullNonce          string
	saltedPassword     []byte
	authMessage        string
}

// NewSCRAM begins a SCRAM-SHA-256 exchange for username/password, drawing
// a fresh 18-byte client nonce and base64-encoding it, per §4.3.
func NewSCRAM(username, password string) (*SCRAM, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}
	return &SCRAM{username: username, password: password, nonce: nonce}, nil
}

func randomNonce() (string, error) {
	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: generating SCRAM nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ClientFirstMessage returns the SASLInitialResponse body:
// "n,,n=<user>,r=<nonce>".
func (s *SCRAM) ClientFirstMessage() string {
	return "n,,n=" + s.username + ",r=" + s.nonce
}

// clientFirstMessageBare is the portion of ClientFirstMessage after the
// GS2 header, used verbatim in the AuthMessage per RFC 5802.
func (s *SCRAM) clientFirstMessageBare() string {
	return "n=" + s.username + ",r=" + s.nonce
}

// HandleServerFirstMessage parses the AuthenticationSASLContinue payload
// ("r=<nonce>,s=<salt>,i=<iterations>"), derives SaltedPassword by PBKDF2,
// and returns the SASLResponse body
// ("c=biws,r=<nonce>,p=<base64 ClientProof>"). The expected ServerSignature
// is not returned; VerifyServerFinalMessage derives it from the state this
// call stores.
func (s *SCRAM) HandleServerFirstMessage(serverFirstMessage []byte) (clientFinalMessage string, err error) {
	s.serverFirstMessage = string(serverFirstMessage)

	parts := strings.Split(s.serverFirstMessage, ",")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "r=") ||
		!strings.HasPrefix(parts[1], "s=") || !strings.HasPrefix(parts[2], "i=") {
		return "", fmt.Errorf("auth: malformed SCRAM server-first-message %q", s.serverFirstMessage)
	}

	s.fullNonce = parts[0][2:]
	if !strings.HasPrefix(s.fullNonce, s.nonce) {
		return "", fmt.Errorf("auth: server nonce does not extend client nonce")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[1][2:])
	if err != nil {
		return "", fmt.Errorf("auth: invalid SCRAM salt: %w", err)
	}

	iterations, err := strconv.Atoi(parts[2][2:])
	if err != nil || iterations <= 0 {
		return "", fmt.Errorf("auth: invalid SCRAM iteration count %q", parts[2][2:])
	}

	s.saltedPassword = pbkdf2.Key([]byte(s.password), salt, iterations, sha256.Size, sha256.New)

	clientFinalMessageWithoutProof := "c=biws,r=" + s.fullNonce
	s.authMessage = s.clientFirstMessageBare() + "," + s.serverFirstMessage + "," + clientFinalMessageWithoutProof

	clientProof := s.computeClientProof()
	return clientFinalMessageWithoutProof + ",p=" + clientProof, nil
}

// VerifyServerFinalMessage checks the "v=<signature>" payload of
// AuthenticationSASLFinal against the expected ServerSignature. Per §9, a
// mismatch is fatal: it is never merely logged.
func (s *SCRAM) VerifyServerFinalMessage(serverFinalMessage []byte) error {
	msg := string(serverFinalMessage)
	if !strings.HasPrefix(msg, "v=") {
		return fmt.Errorf("auth: malformed SCRAM server-final-message %q", msg)
	}
	got := msg[2:]
	want := s.computeServerSignature()
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return fmt.Errorf("auth: SCRAM ServerSignature mismatch: server may be an impostor")
	}
	return nil
}

func (s *SCRAM) computeClientProof() string {
	clientKey := hmacSHA256(s.saltedPassword, []byte("Client Key"))
	storedKey := sha256.Sum256(clientKey)
	clientSignature := hmacSHA256(storedKey[:], []byte(s.authMessage))

	proof := make([]byte, len(clientSignature))
	for i := range proof {
		proof[i] = clientKey[i] ^ clientSignature[i]
	}
	return base64.StdEncoding.EncodeToString(proof)
}

func (s *SCRAM) computeServerSignature() string {
	serverKey := hmacSHA256(s.saltedPassword, []byte("Server Key"))
	serverSignature := hmacSHA256(serverKey, []byte(s.authMessage))
	return base64.StdEncoding.EncodeToString(serverSignature)
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
