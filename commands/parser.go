package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"mahjongbot/models"
)

// Kind identifies a recognized chat command
type Kind int

const (
	KindUnknown Kind = iota
	KindCreateSession
	KindJoin
	KindSelectWind
	KindStatus
	KindClaimDealer
	KindWithdraw
	KindEndSession
	KindSetNickname
	KindMyStats
	KindNicknameInfo
	KindLeaderboard
)

// Literal command prefixes
const (
	PrefixCreateSession = "/開局"
	PrefixJoin          = "/加入"
	PrefixSelectWind    = "/選風"
	PrefixStatus        = "/狀態"
	PrefixClaimDealer   = "/我當莊"
	PrefixWithdraw      = "/退出"
	PrefixEndSession    = "/結束對局"
	PrefixSetNickname   = "/設定暱稱"
	PrefixMyStats       = "/我的統計"
	PrefixNicknameInfo  = "/暱稱資訊"
	PrefixLeaderboard   = "/排行榜"
)

var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{PrefixCreateSession, KindCreateSession},
	{PrefixJoin, KindJoin},
	{PrefixSelectWind, KindSelectWind},
	{PrefixStatus, KindStatus},
	{PrefixClaimDealer, KindClaimDealer},
	{PrefixWithdraw, KindWithdraw},
	{PrefixEndSession, KindEndSession},
	{PrefixSetNickname, KindSetNickname},
	{PrefixMyStats, KindMyStats},
	{PrefixNicknameInfo, KindNicknameInfo},
	{PrefixLeaderboard, KindLeaderboard},
}

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindCreateSession: "create_session",
	KindJoin:          "join",
	KindSelectWind:    "select_wind",
	KindStatus:        "status",
	KindClaimDealer:   "claim_dealer",
	KindWithdraw:      "withdraw",
	KindEndSession:    "end_session",
	KindSetNickname:   "set_nickname",
	KindMyStats:       "my_stats",
	KindNicknameInfo:  "nickname_info",
	KindLeaderboard:   "leaderboard",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// GroupOnly reports whether the command needs a group chat
func (k Kind) GroupOnly() bool {
	switch k {
	case KindCreateSession, KindJoin, KindSelectWind, KindStatus,
		KindClaimDealer, KindWithdraw, KindEndSession, KindLeaderboard:
		return true
	}
	return false
}

// NeedsDisplayName reports whether handling the command uses the sender's platform display name
func (k Kind) NeedsDisplayName() bool {
	switch k {
	case KindJoin, KindSetNickname, KindNicknameInfo:
		return true
	}
	return false
}

// Command is a parsed chat message
type Command struct {
	Kind Kind
	// Args is the text after the command prefix, trimmed
	Args string
}

// Parse recognizes the command prefix of a chat message.
// Text that does not start with a known prefix yields KindUnknown.
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	for _, p := range prefixes {
		if strings.HasPrefix(text, p.prefix) {
			return Command{
				Kind: p.kind,
				Args: strings.TrimSpace(strings.TrimPrefix(text, p.prefix)),
			}
		}
	}
	return Command{Kind: KindUnknown}
}

// Session creation defaults and bounds
const (
	DefaultMode      = "台麻"
	DefaultPerPoint  = 10
	DefaultBaseScore = 30

	MinPerPoint  = 1
	MaxPerPoint  = 1000
	MinBaseScore = 1
	MaxBaseScore = 10000
)

// Modes is the closed vocabulary of table modes
var Modes = []string{"台麻", "港麻", "四川麻將", "國標麻將"}

const (
	noFeeToken = "不收莊錢"
	feeToken   = "收莊錢"
)

var (
	modePattern      = regexp.MustCompile(`(台麻|港麻|四川麻將|國標麻將)`)
	perPointPattern  = regexp.MustCompile(`每台(\d+)`)
	baseScorePattern = regexp.MustCompile(`底(\d+)`)
)

// ParseSessionCreation extracts table rules from a session creation command.
// Each setting is matched independently and falls back to its default.
func ParseSessionCreation(text string) models.SessionParams {
	params := models.SessionParams{
		Mode:              DefaultMode,
		PerPoint:          DefaultPerPoint,
		BaseScore:         DefaultBaseScore,
		CollectsDealerFee: true,
	}

	text = strings.TrimSpace(strings.Replace(strings.TrimSpace(text), PrefixCreateSession, "", 1))
	if text == "" {
		return params
	}

	if m := modePattern.FindStringSubmatch(text); m != nil {
		params.Mode = m[1]
	}
	if m := perPointPattern.FindStringSubmatch(text); m != nil {
		params.PerPoint = parseBoundedInt(m[1])
	}
	if m := baseScorePattern.FindStringSubmatch(text); m != nil {
		params.BaseScore = parseBoundedInt(m[1])
	}

	// "收莊錢" is a substring of "不收莊錢", so the negative form is checked first
	if strings.Contains(text, noFeeToken) {
		params.CollectsDealerFee = false
	} else if strings.Contains(text, feeToken) {
		params.CollectsDealerFee = true
	}

	return params
}

// parseBoundedInt converts a digit run, saturating values that overflow int
// so that validation reports them as out of range.
func parseBoundedInt(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return int(^uint(0) >> 1)
		}
		return 0
	}
	return n
}

// ValidateSessionCreation returns every rule the parameters violate
func ValidateSessionCreation(params models.SessionParams) []string {
	var problems []string

	if params.PerPoint < MinPerPoint || params.PerPoint > MaxPerPoint {
		problems = append(problems, fmt.Sprintf("每台金額必須在 %d-%d 元之間", MinPerPoint, MaxPerPoint))
	}
	if params.BaseScore < MinBaseScore || params.BaseScore > MaxBaseScore {
		problems = append(problems, fmt.Sprintf("底台金額必須在 %d-%d 元之間", MinBaseScore, MaxBaseScore))
	}
	if !IsValidMode(params.Mode) {
		problems = append(problems, fmt.Sprintf("模式必須是以下之一：%s", strings.Join(Modes, ", ")))
	}

	return problems
}

// IsValidMode reports whether mode belongs to the mode vocabulary
func IsValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// MaxNicknameLength is the nickname limit in characters
const MaxNicknameLength = 20

// ErrInvalidNickname is returned when a nickname is empty after cleaning or too long
var ErrInvalidNickname = errors.New("invalid nickname")

// Reasons a nickname is rejected, each matching ErrInvalidNickname
var (
	ErrNicknameEmpty        = fmt.Errorf("%w: empty", ErrInvalidNickname)
	ErrNicknameTooLong      = fmt.Errorf("%w: longer than %d characters", ErrInvalidNickname, MaxNicknameLength)
	ErrNicknameNoValidChars = fmt.Errorf("%w: only special characters", ErrInvalidNickname)
)

var (
	admissionDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\x{4e00}-\x{9fff}]`)
	nicknameDisallowed  = regexp.MustCompile(`[^\p{L}\p{N}_\x{4e00}-\x{9fff}\s]`)
)

// ParseAdmission returns the cleaned nickname argument of a join command, or nil.
// The nickname is informational only; joins always use the profile's nickname.
func ParseAdmission(text string) *string {
	text = strings.TrimSpace(strings.Replace(strings.TrimSpace(text), PrefixJoin, "", 1))
	if text == "" {
		return nil
	}

	nickname := truncateRunes(admissionDisallowed.ReplaceAllString(text, ""), MaxNicknameLength)
	if nickname == "" {
		return nil
	}
	return &nickname
}

// CleanNickname validates a nickname for the nickname-set command.
// Inputs longer than 20 characters are rejected before cleaning.
func CleanNickname(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNicknameEmpty
	}
	if utf8.RuneCountInString(raw) > MaxNicknameLength {
		return "", ErrNicknameTooLong
	}

	cleaned := strings.TrimSpace(nicknameDisallowed.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return "", ErrNicknameNoValidChars
	}
	return cleaned, nil
}

// ParseWindArg extracts the wind from a wind selection command's argument
func ParseWindArg(args string) (models.Wind, bool) {
	args = strings.TrimSpace(args)
	// "東風" is accepted as well as "東"
	args = strings.TrimSuffix(args, "風")
	return models.ParseWind(args)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
