package keystore

// KeystoreJSON is an encrypted mnemonic in the Ethereum keystore v3 layout.
// Address holds the first managed address, used to detect a wrong passphrase.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int // Derived key length (32 bytes)
	N     int // CPU/memory cost parameter
	R     int // Block size parameter
	P     int // Parallelization parameter
}

const (
	keystoreVersion = 3
	cipherName      = "aes-128-ctr"
	kdfName         = "scrypt"
	scryptDKLen     = 32
	scryptR         = 8
)

// DefaultScryptParams returns default scrypt parameters for Ethereum keystore v3
func DefaultScryptParams() *ScryptParams {
	return &ScryptParams{
		DKLen: scryptDKLen,
		N:     1 << 18,
		R:     scryptR,
		P:     1,
	}
}

// LightScryptParams trades KDF strength for speed, for tests and short lived
// development keystores.
func LightScryptParams() *ScryptParams {
	return &ScryptParams{
		DKLen: scryptDKLen,
		N:     1 << 12,
		R:     scryptR,
		P:     6,
	}
}
