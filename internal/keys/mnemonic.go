package keys

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// ethCoinType is the SLIP-44 coin type for Ether.
const ethCoinType = 60

// MaxTypoDistance is the largest edit distance offered as a suggestion.
const MaxTypoDistance = 2

//nolint:gochecknoglobals // compiled once
var (
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
	bulletListRegex   = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// GenerateMnemonic creates a 12 or 24 word English mnemonic.
func GenerateMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidInput, "word count must be 12 or 24"),
			map[string]string{"words": strconv.Itoa(words)},
		)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", seqerr.WrapAs(seqerr.KindGeneral, err, "reading entropy")
	}
	defer clear(entropy)
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases input and strips list numbering, bullets,
// commas, and repeated whitespace left over from pasting.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	return strings.Join(strings.Fields(input), " ")
}

// ValidateMnemonic checks word count, vocabulary, and checksum. Unknown
// words are reported with their closest valid spelling.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidKey, "mnemonic must have 12, 15, 18, 21, or 24 words"),
			map[string]string{"words": strconv.Itoa(len(words))},
		)
	}

	if typos := DetectTypos(normalized); len(typos) > 0 {
		return seqerr.WithSuggestion(
			seqerr.New(seqerr.KindInvalidKey, "mnemonic contains unknown words"),
			FormatTypos(typos),
		)
	}
	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return seqerr.WithSuggestion(
			seqerr.New(seqerr.KindInvalidKey, "mnemonic checksum does not match"),
			"check the word order",
		)
	}
	return nil
}

// Typo is a word missing from the BIP-39 list.
type Typo struct {
	Index      int // 0-based word position
	Word       string
	Suggestion string // empty when nothing is close
}

// DetectTypos lists the words of mnemonic that are not BIP-39 words.
func DetectTypos(mnemonic string) []Typo {
	var typos []Typo
	for i, word := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if _, ok := bip39.GetWordIndex(word); ok {
			continue
		}
		typos = append(typos, Typo{Index: i, Word: word, Suggestion: SuggestWord(word)})
	}
	return typos
}

// SuggestWord returns the closest BIP-39 word within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)
	best, bestDist := "", math.MaxInt
	for _, word := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(input, word)
		if d < bestDist {
			best, bestDist = word, d
		}
		if d == 0 {
			break
		}
	}
	if bestDist > MaxTypoDistance {
		return ""
	}
	return best
}

// FormatTypos renders typos one per line with 1-based positions.
func FormatTypos(typos []Typo) string {
	lines := make([]string, 0, len(typos))
	for _, t := range typos {
		if t.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("word %d: '%s', did you mean '%s'?", t.Index+1, t.Word, t.Suggestion))
		} else {
			lines = append(lines, fmt.Sprintf("word %d: '%s' is not a BIP-39 word", t.Index+1, t.Word))
		}
	}
	return strings.Join(lines, "\n")
}

// DerivationPath returns the BIP-44 path for an account index.
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/%d'/0'/0/%d", ethCoinType, index)
}

// DeriveKey derives the private key at m/44'/60'/0'/0/index from a
// mnemonic and optional passphrase.
func DeriveKey(mnemonic, passphrase string, index uint32) (*SecureBytes, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed := bip39.NewSeed(NormalizeMnemonic(mnemonic), passphrase)
	defer clear(seed)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindInvalidKey, err, "creating master key")
	}
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + ethCoinType,
		bip32.FirstHardenedChild,
		0,
		index,
	}
	for _, child := range path {
		next, err := key.NewChildKey(child)
		clear(key.Key)
		if err != nil {
			return nil, seqerr.WrapAs(seqerr.KindInvalidKey, err, "deriving %s", DerivationPath(index))
		}
		key = next
	}
	defer clear(key.Key)

	return NewSecureBytes(hexutil.PadLeft(key.Key, 32)), nil
}
