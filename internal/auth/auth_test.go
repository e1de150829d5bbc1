package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestMD5KnownVector(t *testing.T) {
	got := MD5("user", "pass", [4]byte{0xAA, 0xBB, 0xCC, 0xDD})
	require.True(t, strings.HasPrefix(got, "md5"))
	require.Len(t, got, 35)
	require.Equal(t, "md57418e300871197e78bef3b16a133009f", got)
}

func TestSCRAMHappyPath(t *testing.T) {
	password := "s3kr1t"
	username := "tester"

	client, err := NewSCRAM(username, password)
	require.NoError(t, err)

	first := client.ClientFirstMessage()
	require.True(t, strings.HasPrefix(first, "n,,n=tester,r="))
	clientNonce := strings.TrimPrefix(first, "n,,n=tester,r=")

	// Simulate the server side per RFC 5802.
	serverNonce := "server-half"
	fullNonce := clientNonce + serverNonce
	salt := []byte("pgsalt1234567890")
	iterations := 4096

	serverFirst := "r=" + fullNonce + ",s=" + base64.StdEncoding.EncodeToString(salt) + ",i=" + "4096"

	clientFinal, err := client.HandleServerFirstMessage([]byte(serverFirst))
	require.NoError(t, err)
	require.Contains(t, clientFinal, "c=biws,r="+fullNonce)
	require.Contains(t, clientFinal, ",p=")

	saltedPassword := pbkdf2.Key([]byte(password), salt, iterations, sha256.Size, sha256.New)
	authMessage := "n=" + username + ",r=" + clientNonce + "," + serverFirst + ",c=biws,r=" + fullNonce

	serverKey := hmacSum(saltedPassword, "Server Key")
	serverSignature := hmacSum(serverKey, authMessage)
	serverFinal := "v=" + base64.StdEncoding.EncodeToString(serverSignature)

	require.NoError(t, client.VerifyServerFinalMessage([]byte(serverFinal)))
}

func TestSCRAMRejectsForgedServerSignature(t *testing.T) {
	client, err := NewSCRAM("tester", "s3kr1t")
	require.NoError(t, err)
	clientNonce := strings.TrimPrefix(client.ClientFirstMessage(), "n,,n=tester,r=")

	serverFirst := "r=" + clientNonce + "rest,s=" + base64.StdEncoding.EncodeToString([]byte("salt")) + ",i=4096"
	_, err = client.HandleServerFirstMessage([]byte(serverFirst))
	require.NoError(t, err)

	err = client.VerifyServerFinalMessage([]byte("v=" + base64.StdEncoding.EncodeToString([]byte("forged"))))
	require.Error(t, err)
}

func hmacSum(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
