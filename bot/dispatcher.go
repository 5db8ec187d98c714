package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mahjongbot/bot/common"
	"mahjongbot/commands"
	"mahjongbot/infrastructure/observability"
	"mahjongbot/service"

	log "github.com/sirupsen/logrus"
)

// DefaultDisplayName is used when the platform profile cannot be fetched
const DefaultDisplayName = "LINE用戶"

// Request is one chat message addressed to the bot
type Request struct {
	Text   string
	UserID string
	// GroupID is empty for one-to-one chats
	GroupID     string
	DisplayName string
}

// QuickReply is a suggested message offered under a reply
type QuickReply struct {
	Label string
	Text  string
}

// Reply is the text sent back to the chat
type Reply struct {
	// Notice is sent as a separate message before Text
	Notice       string
	Text         string
	QuickReplies []QuickReply
}

// Dispatcher routes parsed commands to the services and renders their results
type Dispatcher struct {
	sessions        service.SessionService
	identity        service.IdentityService
	stats           service.StatsService
	metrics         *observability.MetricsProvider
	leaderboardSize int
}

// NewDispatcher creates a new command dispatcher
func NewDispatcher(
	sessions service.SessionService,
	identity service.IdentityService,
	stats service.StatsService,
	metrics *observability.MetricsProvider,
	leaderboardSize int,
) *Dispatcher {
	return &Dispatcher{
		sessions:        sessions,
		identity:        identity,
		stats:           stats,
		metrics:         metrics,
		leaderboardSize: leaderboardSize,
	}
}

// Handle runs one chat message. It returns nil for text that is not a command.
func (d *Dispatcher) Handle(ctx context.Context, req Request) *Reply {
	cmd := commands.Parse(req.Text)
	if cmd.Kind == commands.KindUnknown {
		return nil
	}
	if req.DisplayName == "" {
		req.DisplayName = DefaultDisplayName
	}

	fields := log.Fields{
		"command": cmd.Kind.String(),
		"userID":  req.UserID,
		"groupID": req.GroupID,
	}

	start := time.Now()
	reply, err := d.route(ctx, cmd, req)
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = observability.OutcomeError
		var botErr *common.BotError
		if errors.As(err, &botErr) && botErr.Expected {
			outcome = observability.OutcomeRejected
		}
		reply = &Reply{Text: common.HandleError(fields, err)}
	}
	d.metrics.RecordCommand(cmd.Kind.String(), outcome, time.Since(start))

	log.WithFields(fields).WithField("outcome", outcome).Debug("Command handled")
	return reply
}

func (d *Dispatcher) route(ctx context.Context, cmd commands.Command, req Request) (*Reply, error) {
	if cmd.Kind.GroupOnly() && req.GroupID == "" {
		return nil, common.NewUserError(groupOnlyMessage, "group command used outside a group")
	}

	switch cmd.Kind {
	case commands.KindCreateSession:
		return d.createSession(ctx, req)
	case commands.KindJoin:
		return d.join(ctx, req)
	case commands.KindSelectWind:
		return d.selectWind(ctx, cmd, req)
	case commands.KindStatus:
		return d.status(ctx, req)
	case commands.KindClaimDealer:
		return d.claimDealer(ctx, req)
	case commands.KindWithdraw:
		return d.withdraw(ctx, req)
	case commands.KindEndSession:
		return d.endSession(ctx, req)
	case commands.KindSetNickname:
		return d.setNickname(ctx, cmd, req)
	case commands.KindMyStats:
		return d.myStats(ctx, req)
	case commands.KindNicknameInfo:
		return d.nicknameInfo(ctx, req)
	case commands.KindLeaderboard:
		return d.leaderboard(ctx, req)
	default:
		return nil, fmt.Errorf("unhandled command kind %s", cmd.Kind)
	}
}

func (d *Dispatcher) createSession(ctx context.Context, req Request) (*Reply, error) {
	params := commands.ParseSessionCreation(req.Text)
	session, err := d.sessions.CreateSession(ctx, req.GroupID, params)
	if err != nil {
		return nil, translateError(err, "failed to create session")
	}
	return &Reply{Text: sessionCreatedMessage(session)}, nil
}

func (d *Dispatcher) join(ctx context.Context, req Request) (*Reply, error) {
	result, err := d.sessions.AdmitParticipant(ctx, req.GroupID, req.UserID, req.DisplayName)
	if err != nil {
		return nil, translateError(err, "failed to admit participant")
	}

	reply := &Reply{
		Notice: admissionNotice(result, commands.ParseAdmission(req.Text)),
		Text:   admissionMessage(result),
	}
	if result.WindsNeeded {
		reply.QuickReplies = windQuickReplies()
	}
	return reply, nil
}

func (d *Dispatcher) selectWind(ctx context.Context, cmd commands.Command, req Request) (*Reply, error) {
	wind, ok := commands.ParseWindArg(cmd.Args)
	if !ok {
		return nil, common.NewUserError(invalidWindMessage, fmt.Sprintf("invalid wind %q", cmd.Args))
	}

	result, err := d.sessions.AssignWind(ctx, req.GroupID, req.UserID, wind)
	if err != nil {
		var progression *service.ProgressionError
		if errors.As(err, &progression) && errors.Is(err, service.ErrWindTaken) {
			return nil, common.NewUserError(windTakenMessage(wind, progression.Nickname), "wind already taken")
		}
		return nil, translateError(err, "failed to assign wind")
	}
	return &Reply{Text: windSelectedMessage(result)}, nil
}

func (d *Dispatcher) status(ctx context.Context, req Request) (*Reply, error) {
	snapshot, err := d.sessions.Query(ctx, req.GroupID)
	if err != nil {
		return nil, translateError(err, "failed to query session")
	}
	return &Reply{Text: statusMessage(snapshot)}, nil
}

func (d *Dispatcher) claimDealer(ctx context.Context, req Request) (*Reply, error) {
	result, err := d.sessions.AssignDealer(ctx, req.GroupID, req.UserID)
	if err != nil {
		return nil, translateError(err, "failed to assign dealer")
	}
	return &Reply{Text: dealerMessage(result)}, nil
}

func (d *Dispatcher) withdraw(ctx context.Context, req Request) (*Reply, error) {
	result, err := d.sessions.Withdraw(ctx, req.GroupID, req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSessionInProgress) {
			return nil, common.NewUserError(withdrawLockedText, "withdraw after play started")
		}
		return nil, translateError(err, "failed to withdraw participant")
	}
	return &Reply{Text: withdrawMessage(result)}, nil
}

func (d *Dispatcher) endSession(ctx context.Context, req Request) (*Reply, error) {
	session, err := d.sessions.EndSession(ctx, req.GroupID, req.UserID)
	if err != nil {
		return nil, translateError(err, "failed to end session")
	}
	return &Reply{Text: sessionEndedMessage(session)}, nil
}

func (d *Dispatcher) setNickname(ctx context.Context, cmd commands.Command, req Request) (*Reply, error) {
	change, err := d.identity.SetNickname(ctx, req.UserID, cmd.Args, req.DisplayName)
	if err != nil {
		return nil, translateError(err, "failed to set nickname")
	}
	return &Reply{Text: nicknameChangedMessage(change)}, nil
}

func (d *Dispatcher) myStats(ctx context.Context, req Request) (*Reply, error) {
	stats, err := d.stats.GetUserStats(ctx, req.UserID)
	if err != nil {
		return nil, translateError(err, "failed to get user stats")
	}
	if stats == nil {
		return &Reply{Text: noStatsMessage}, nil
	}
	return &Reply{Text: userStatsMessage(stats)}, nil
}

func (d *Dispatcher) nicknameInfo(ctx context.Context, req Request) (*Reply, error) {
	profile, err := d.identity.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, translateError(err, "failed to get profile")
	}
	return &Reply{Text: nicknameInfoMessage(profile, req.DisplayName)}, nil
}

func (d *Dispatcher) leaderboard(ctx context.Context, req Request) (*Reply, error) {
	entries, err := d.stats.Leaderboard(ctx, req.GroupID, d.leaderboardSize)
	if err != nil {
		return nil, translateError(err, "failed to get leaderboard")
	}
	return &Reply{Text: leaderboardMessage(entries)}, nil
}

// translateError maps a service error onto the text the chat sees
func translateError(err error, logMessage string) error {
	var (
		validation  *service.ValidationError
		duplicate   *service.DuplicateSessionError
		progression *service.ProgressionError
	)
	nickname := ""
	if errors.As(err, &progression) {
		nickname = progression.Nickname
	}

	var userMessage string
	switch {
	case errors.As(err, &validation):
		userMessage = validationMessage(validation.Problems)
	case errors.As(err, &duplicate):
		userMessage = duplicateSessionMessage(duplicate.SessionID)
	case errors.Is(err, service.ErrNoActiveSession):
		userMessage = noSessionMessage
	case errors.Is(err, service.ErrNotJoined):
		userMessage = notJoinedMessage
	case errors.Is(err, service.ErrAlreadyJoined):
		userMessage = alreadyJoinedMessage(nickname)
	case errors.Is(err, service.ErrSessionFull):
		userMessage = sessionFullMessage
	case errors.Is(err, service.ErrNicknameTaken):
		userMessage = nicknameTakenMessage(nickname)
	case errors.Is(err, service.ErrDealerAlreadySet):
		if progression != nil && progression.Self {
			userMessage = dealerSelfMessage
		} else {
			userMessage = dealerTakenMessage(nickname)
		}
	case errors.Is(err, service.ErrNotReady):
		userMessage = notReadyMessage
	case errors.Is(err, service.ErrSessionInProgress):
		userMessage = inProgressMessage
	case errors.Is(err, service.ErrInvalidTransition):
		userMessage = invalidStateMessage
	case errors.Is(err, commands.ErrNicknameEmpty):
		userMessage = nicknameEmptyMessage
	case errors.Is(err, commands.ErrNicknameTooLong):
		userMessage = nicknameLongMessage
	case errors.Is(err, commands.ErrNicknameNoValidChars):
		userMessage = nicknameCharsMessage
	case errors.Is(err, service.ErrProfileNotFound):
		userMessage = noStatsMessage
	case errors.Is(err, service.ErrConflict):
		userMessage = conflictMessage
	default:
		return common.NewSystemError(err, logMessage)
	}

	botErr := common.NewUserError(userMessage, logMessage)
	botErr.Err = err
	return botErr
}
