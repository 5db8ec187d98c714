package bot

import (
	"fmt"
	"strings"

	"mahjongbot/bot/common"
	"mahjongbot/commands"
	"mahjongbot/models"
	"mahjongbot/service"
)

// Nickname sources shown on join
const (
	sourcePreferred   = "慣用暱稱"
	sourceDisplayName = "LINE名稱"
)

const (
	groupOnlyMessage     = "❌ 此功能僅限群組使用"
	noSessionMessage     = "❌ 目前沒有進行中的對局\n💡 使用 `/開局` 指令開始新對局"
	notJoinedMessage     = "❌ 你尚未加入此局遊戲"
	sessionFullMessage   = "❌ 此局已滿 4 位玩家，無法再加入"
	inProgressMessage    = "❌ 遊戲已開始，無法變更\n💡 請等待本局結束或使用 /結束對局 指令"
	withdrawLockedText   = "❌ 遊戲已開始，無法退出\n💡 請等待本局結束或聯繫群組管理員"
	notReadyMessage      = "❌ 請等待所有玩家加入並選擇風位後再設定莊家"
	dealerSelfMessage    = "✅ 你已經是莊家了！"
	conflictMessage      = "❌ 有其他玩家同時操作，請再試一次"
	invalidWindMessage   = "❌ 請選擇有效的風位：東、南、西、北\n使用方式：/選風 東"
	invalidStateMessage  = "❌ 目前的對局狀態無法執行此指令"
	nicknameEmptyMessage = "❌ 請提供要設定的暱稱\n使用方式：/設定暱稱 你想要的暱稱"
	nicknameLongMessage  = "❌ 暱稱長度不能超過 20 個字"
	nicknameCharsMessage = "❌ 暱稱不能只包含特殊字符"
	noStatsMessage       = "❌ 找不到你的記錄\n\n💡 請先使用以下指令設定暱稱：\n/設定暱稱 你的暱稱\n\n設定後參與遊戲，系統就會開始記錄你的統計資料了！"
	emptyBoardMessage    = "📊 此群組尚無排行榜記錄\n\n💡 當群組成員設定暱稱並參與遊戲後，\n就會開始累積記錄並顯示排行榜了！"
)

func validationMessage(problems []string) string {
	var b strings.Builder
	b.WriteString("❌ 參數錯誤：")
	for _, p := range problems {
		b.WriteString("\n• ")
		b.WriteString(p)
	}
	return b.String()
}

func duplicateSessionMessage(sessionID int64) string {
	return fmt.Sprintf("❌ 此群組已有進行中的對局（ID: %d）\n請先完成當前對局或使用 /結束對局 指令", sessionID)
}

func sessionCreatedMessage(s *models.Session) string {
	return fmt.Sprintf(`✅ 對局建立完成！

🀄 模式：%s
💰 每台：%s 元
📉 底台：%s 元
🏯 收莊錢：%s

請輸入 `+"`/加入 暱稱`"+` 加入此場遊戲（共 %d 位）`,
		s.Mode, common.FormatAmount(int64(s.PerPoint)), common.FormatAmount(int64(s.BaseScore)),
		common.YesNo(s.CollectsDealerFee), models.MaxParticipants)
}

func seatList(participants []*models.Participant) string {
	lines := make([]string, 0, len(participants))
	for _, p := range participants {
		lines = append(lines, fmt.Sprintf("%d號: %s", p.SeatNumber, p.Nickname))
	}
	return strings.Join(lines, "\n")
}

func nicknameSource(usedPreferred bool) string {
	if usedPreferred {
		return sourcePreferred
	}
	return sourceDisplayName
}

// admissionNotice explains why the seat took a different nickname than the one typed
func admissionNotice(result *service.AdmissionResult, provided *string) string {
	if provided == nil || *provided == result.Participant.Nickname {
		return ""
	}
	nickname := result.Participant.Nickname
	return fmt.Sprintf(`💡 系統自動使用你的%s：%s

📝 你輸入的暱稱：%s
🎯 實際使用的暱稱：%s

💡 說明：
• 系統使用 LINE ID 來綁定數據
• 如果你有設定慣用暱稱會優先使用
• 沒有設定則使用你的 LINE 原本名字
• 如需設定固定暱稱，請使用：/設定暱稱 新暱稱`,
		nicknameSource(result.UsedPreferred), nickname, *provided, nickname)
}

func admissionMessage(result *service.AdmissionResult) string {
	count := result.Snapshot.Count()

	var b strings.Builder
	fmt.Fprintf(&b, "✅ 加入成功！\n\n🎯 玩家：%s (%s)\n🎲 座位：%d 號\n👥 目前人數：%d/%d 人\n\n",
		result.Participant.Nickname, nicknameSource(result.UsedPreferred),
		result.Participant.SeatNumber, count, models.MaxParticipants)

	if !result.UsedPreferred {
		b.WriteString("💡 如需設定固定暱稱，可使用 /設定暱稱 新暱稱\n\n")
	}

	if result.WindsNeeded {
		fmt.Fprintf(&b, "🎉 人數已滿，可以開始遊戲！\n\n👥 玩家名單：\n%s\n\n請各位玩家選擇風位：",
			seatList(result.Snapshot.Participants))
		return b.String()
	}

	fmt.Fprintf(&b, "👥 目前玩家：\n%s\n\n等待其他玩家加入...（還需 %d 人）",
		seatList(result.Snapshot.Participants), models.MaxParticipants-count)
	return b.String()
}

func alreadyJoinedMessage(nickname string) string {
	return fmt.Sprintf("❌ 你已經加入此局遊戲了！\n🎯 你的暱稱：%s", nickname)
}

func nicknameTakenMessage(nickname string) string {
	return fmt.Sprintf("❌ 暱稱「%s」已被使用，請先使用 /設定暱稱 設定其他暱稱", nickname)
}

// windQuickReplies offers one button per wind
func windQuickReplies() []QuickReply {
	labels := map[models.Wind]string{
		models.WindEast:  "🀀 東",
		models.WindSouth: "🀁 南",
		models.WindWest:  "🀂 西",
		models.WindNorth: "🀃 北",
	}
	replies := make([]QuickReply, 0, len(models.AllWinds))
	for _, w := range models.AllWinds {
		replies = append(replies, QuickReply{
			Label: labels[w],
			Text:  commands.PrefixSelectWind + " " + string(w),
		})
	}
	return replies
}

func windSelectedMessage(result *service.WindResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s 選擇了 %s！", result.Participant.Nickname, common.FormatWind(result.Wind))

	if result.ReadyForDealer {
		lines := make([]string, 0, models.MaxParticipants)
		for _, p := range result.Snapshot.Participants {
			if p.Wind != nil {
				lines = append(lines, fmt.Sprintf("%s: %s", common.FormatWind(*p.Wind), p.Nickname))
			}
		}
		fmt.Fprintf(&b, "\n\n🎉 風位選擇完成！\n\n🀀🀁🀂🀃 風位配置：\n%s\n\n請東風玩家輸入 `/我當莊` 開始第一局，或其他玩家可輸入 `/我當莊` 擔任莊家",
			strings.Join(lines, "\n"))
		return b.String()
	}

	fmt.Fprintf(&b, "\n還需 %d 位玩家選擇風位", models.MaxParticipants-result.Snapshot.WindsAssigned())
	return b.String()
}

func windTakenMessage(wind models.Wind, holder string) string {
	return fmt.Sprintf("❌ %s已被「%s」選擇", common.FormatWind(wind), holder)
}

func statusMessage(snapshot *models.SessionSnapshot) string {
	s := snapshot.Session
	count := snapshot.Count()

	var b strings.Builder
	fmt.Fprintf(&b, "📊 對局狀態\n\n🀄 遊戲模式：%s\n💰 每台：%s 元\n📉 底台：%s 元\n🏯 收莊錢：%s\n👥 人數：%d/%d 人\n\n",
		s.Mode, common.FormatAmount(int64(s.PerPoint)), common.FormatAmount(int64(s.BaseScore)),
		common.YesNo(s.CollectsDealerFee), count, models.MaxParticipants)

	if count == 0 {
		b.WriteString("📝 尚無玩家加入\n💡 使用 `/加入 暱稱` 指令加入遊戲")
		return b.String()
	}

	b.WriteString("📋 玩家列表：\n")
	for _, p := range snapshot.Participants {
		fmt.Fprintf(&b, "%d號: %s", p.SeatNumber, p.Nickname)
		if p.Wind != nil {
			fmt.Fprintf(&b, " (%s)", common.FormatWind(*p.Wind))
		}
		if p.IsDealer {
			b.WriteString(" 👑莊家")
		}
		b.WriteString("\n")
	}

	switch snapshot.Stage() {
	case models.StageWaitingForPlayers:
		fmt.Fprintf(&b, "\n⏳ 等待玩家加入（還需 %d 人）", models.MaxParticipants-count)
	case models.StageWaitingForWinds:
		names := make([]string, 0, count)
		for _, p := range snapshot.WithoutWind() {
			names = append(names, p.Nickname)
		}
		fmt.Fprintf(&b, "\n🎲 等待選擇風位：%s", strings.Join(names, ", "))
	case models.StageWaitingForDealer:
		b.WriteString("\n👑 等待設定莊家（輸入 `/我當莊`）")
	default:
		b.WriteString("\n✅ 準備完成，可以開始遊戲！")
	}
	return b.String()
}

func dealerTakenMessage(nickname string) string {
	return fmt.Sprintf("❌ 「%s」已經是莊家", nickname)
}

func dealerMessage(result *service.DealerResult) string {
	s := result.Snapshot.Session

	lines := make([]string, 0, models.MaxParticipants)
	for _, p := range result.Snapshot.Participants {
		wind := "未選擇"
		if p.Wind != nil {
			wind = common.FormatWind(*p.Wind)
		}
		line := fmt.Sprintf("%d號: %s (%s)", p.SeatNumber, p.Nickname, wind)
		if p.IsDealer {
			line += " 👑"
		}
		lines = append(lines, line)
	}

	return fmt.Sprintf(`🎉 遊戲設定完成！

👑 莊家：%s

🎮 最終配置：
%s

🀄 遊戲規則：
• 模式：%s
• 每台：%s 元
• 底台：%s 元
• 收莊錢：%s

✅ 準備開始遊戲！
📝 可以開始記錄每一手的輸贏了`,
		result.Dealer.Nickname, strings.Join(lines, "\n"), s.Mode,
		common.FormatAmount(int64(s.PerPoint)), common.FormatAmount(int64(s.BaseScore)),
		common.YesNo(s.CollectsDealerFee))
}

func withdrawMessage(result *service.WithdrawResult) string {
	count := result.Snapshot.Count()

	var b strings.Builder
	fmt.Fprintf(&b, "✅ 「%s」已退出遊戲\n\n👥 剩餘玩家：%d/%d 人", result.Withdrawn.Nickname, count, models.MaxParticipants)
	if count == 0 {
		b.WriteString("\n\n📝 目前無玩家，等待新玩家加入...")
		return b.String()
	}
	fmt.Fprintf(&b, "\n\n📋 目前玩家：\n%s\n\n⏳ 還需 %d 位玩家加入", seatList(result.Snapshot.Participants), models.MaxParticipants-count)
	return b.String()
}

func sessionEndedMessage(s *models.Session) string {
	return fmt.Sprintf("🏁 對局已結束（ID: %d）\n\n🀄 模式：%s\n\n💡 使用 `/開局` 指令開始新對局", s.ID, s.Mode)
}

func nicknameChangedMessage(change *service.NicknameChange) string {
	p := change.Profile
	if change.Created {
		return fmt.Sprintf("✅ 暱稱設定成功！\n\n👤 你的暱稱：%s\n📝 LINE名稱：%s\n\n💡 往後加入遊戲時會自動使用此暱稱",
			p.EffectiveNickname(), p.DisplayName)
	}
	return fmt.Sprintf("✅ 暱稱更新成功！\n\n👤 新暱稱：%s\n🔄 舊暱稱：%s\n\n💡 往後加入遊戲時會自動使用新暱稱",
		p.EffectiveNickname(), change.Previous)
}

func userStatsMessage(stats *models.UserStats) string {
	p := stats.Profile
	mark := common.Trend(p.Net)
	if p.Net == 0 {
		mark = "📊"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 個人統計：%s\n\n🎮 總對局：%d 局\n💰 總輸贏：%s 元 %s\n📊 贏取：%s 元\n📉 輸掉：%s 元\n\n💡 提醒：統計數據僅包含使用機器人記錄的對局",
		p.EffectiveNickname(), p.TotalGames, common.FormatSigned(p.Net), mark,
		common.FormatAmount(p.TotalWon), common.FormatAmount(p.TotalLost))

	if len(stats.Recent) > 0 {
		fmt.Fprintf(&b, "\n\n📅 最近 %d 局：", service.RecentParticipationLimit)
		for i, r := range stats.Recent {
			fmt.Fprintf(&b, "\n%d. %s %s ", i+1, common.FormatShortDate(r.PlayedAt), r.Mode)
			if r.Wind != nil {
				fmt.Fprintf(&b, "(%s)", common.FormatWind(*r.Wind))
			}
			if r.IsDealer {
				b.WriteString("👑")
			}
		}
	}
	return b.String()
}

func nicknameInfoMessage(profile *models.Profile, displayName string) string {
	if profile == nil {
		return fmt.Sprintf("📋 你的暱稱資訊\n\n📝 LINE名稱：%s\n👤 設定暱稱：尚未設定\n\n💡 使用 `/設定暱稱 你的暱稱` 來設定固定暱稱\n設定後加入遊戲時會自動使用，方便長期統計記錄！",
			displayName)
	}

	preferred := "尚未設定"
	if profile.HasPreferredNickname() {
		preferred = *profile.PreferredNickname
	}
	return fmt.Sprintf("📋 你的暱稱資訊\n\n📝 LINE名稱：%s\n👤 設定暱稱：%s\n🎮 目前使用：%s\n📊 參與對局：%d 局\n\n💡 使用 `/設定暱稱 新暱稱` 可以更新暱稱",
		profile.DisplayName, preferred, profile.EffectiveNickname(), profile.TotalGames)
}

func leaderboardMessage(entries []*models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return emptyBoardMessage
	}

	var b strings.Builder
	b.WriteString("🏆 群組排行榜（按淨輸贏）\n\n")
	for _, e := range entries {
		p := e.Profile
		fmt.Fprintf(&b, "%s %d. %s\n   💰 %s元 %s (%d局)\n\n",
			common.Medal(e.Rank), e.Rank, p.EffectiveNickname(),
			common.FormatSigned(p.Net), common.Trend(p.Net), p.TotalGames)
	}
	b.WriteString("💡 排行榜僅包含使用機器人記錄的對局")
	return b.String()
}
