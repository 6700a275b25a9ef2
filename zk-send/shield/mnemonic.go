package shield

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kysee/zksend/zk-send/crypto"
	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
)

const (
	DefaultLanguage = "en"
	mnemonicBits    = 256
)

var wordLists = map[string][]string{
	"en":      wordlists.English,
	"es":      wordlists.Spanish,
	"fr":      wordlists.French,
	"it":      wordlists.Italian,
	"ko":      wordlists.Korean,
	"cs":      wordlists.Czech,
	"zh-hans": wordlists.ChineseSimplified,
	"zh-hant": wordlists.ChineseTraditional,
}

// go-bip39 keeps its word list in package state.
var bip39Mtx sync.Mutex

// Languages lists the mnemonic languages, sorted.
func Languages() []string {
	langs := make([]string, 0, len(wordLists))
	for l := range wordLists {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

func withWordList(language string, fn func() error) error {
	list, ok := wordLists[language]
	if !ok {
		return fmt.Errorf("unsupported mnemonic language %q, expected one of %s",
			language, strings.Join(Languages(), ", "))
	}
	bip39Mtx.Lock()
	defer bip39Mtx.Unlock()
	bip39.SetWordList(list)
	return fn()
}

// NewMnemonic returns 24 fresh words in language.
func NewMnemonic(language string) (string, error) {
	var mnemonic string
	err := withWordList(language, func() error {
		entropy, err := bip39.NewEntropy(mnemonicBits)
		if err != nil {
			return err
		}
		mnemonic, err = bip39.NewMnemonic(entropy)
		return err
	})
	return mnemonic, err
}

// SpendingKeyFromMnemonic checks the words and checksum against the word
// list of language, builds the BIP-39 seed and compresses it into a spending
// key.
func SpendingKeyFromMnemonic(mnemonic, passphrase, language string) (SpendingKey, error) {
	var sk SpendingKey
	normalized := strings.Join(strings.Fields(mnemonic), " ")
	if normalized == "" {
		return sk, fmt.Errorf("empty mnemonic")
	}

	var seed []byte
	err := withWordList(language, func() error {
		var err error
		seed, err = bip39.NewSeedWithErrorChecking(normalized, passphrase)
		return err
	})
	if err != nil {
		return sk, fmt.Errorf("invalid mnemonic: %w", err)
	}

	bz, err := crypto.DeriveKey(seed[:KeySize], seed[KeySize:])
	if err != nil {
		return sk, err
	}
	copy(sk[:], bz)
	return sk, nil
}
