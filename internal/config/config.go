package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP server in responses.
var UserAgent = "Go-Sobriety/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Sobriety"
	AppID             = "com.github.tartampluch.go-sobriety"
	BinaryName        = "go-sobriety"
	KeyringService    = "com.github.tartampluch.go-sobriety"
	KeyringFeedUser   = "feed-token"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	DBFileName        = "sobriety.db"
	ConfigFileName    = "config"
	ConfigFileType    = "toml"
	EnvPrefix         = "SOBRIETY"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and the database.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating secure cache and data directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion   = "version"
	FlagDebug     = "debug"
	FlagConfig    = "config"
	FlagDB        = "db"
	FlagOutput    = "output"
	FlagSubstance = "substance"
	FlagNotes     = "notes"
	FlagStart     = "start"
	FlagPort      = "port"
	FlagLanguage  = "lang"

	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescConfig    = "Config file (default is config.toml in the user config dir)"
	FlagDescDB        = "Path to the SQLite database"
	FlagDescOutput    = "Output format: text, json or toml"
	FlagDescSubstance = "Substance or habit being tracked"
	FlagDescNotes     = "Free-text notes stored with the record"
	FlagDescStart     = "New start date (YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339)"
	FlagDescPort      = "Port of the local calendar server"
	FlagDescLanguage  = "Display language (ISO 639-1)"

	MsgVersionOutput = "%s version %s (%s/%s)\n"

	OutputText = "text"
	OutputJSON = "json"
	OutputTOML = "toml"
)

// -----------------------------------------------------------------------------
// CLI Commands & Output
// -----------------------------------------------------------------------------

const (
	CmdShortRoot       = "Track time since a sobriety start date and the milestones reached"
	CmdShortStatus     = "Show the elapsed time and the next milestone"
	CmdShortSet        = "Start a new sobriety period on the given date"
	CmdShortUpdate     = "Change the start date, substance or notes of a record"
	CmdShortReset      = "Start a new sobriety period now"
	CmdShortHistory    = "List every sobriety period, newest first"
	CmdShortMilestones = "List milestones of the active period"
	CmdShortCelebrate  = "Mark a reached milestone as celebrated"
	CmdShortServe      = "Serve the milestone calendar and live status over HTTP"
	CmdShortToken      = "Show the feed URL including its access token"
	CmdShortRotate     = "Replace the feed token"
	CmdShortRevoke     = "Remove the feed token from the keyring"

	EnvKeySeparator = "."
	EnvSeparator    = "_"

	OutRecordStarted = "Sobriety record %s started %s\n"
	OutRecordUpdated = "Sobriety record %s updated\n"
	OutCelebrated    = "Milestone %s celebrated\n"
	OutFeedURL       = "http://%s:%s%s?%s=%s\n"
	OutFeedURLOpen   = "http://%s:%s%s\n"
	OutTokenRevoked  = "Feed token removed; the next serve creates a new one\n"
	OutTableSep      = "\t"
	OutYes           = "yes"
	OutNo            = "no"
	OutNone          = "-"

	ColID        = "ID"
	ColStart     = "START"
	ColSubstance = "SUBSTANCE"
	ColActive    = "ACTIVE"
	ColNotes     = "NOTES"
)

// -----------------------------------------------------------------------------
// Settings Keys (viper)
// -----------------------------------------------------------------------------

const (
	KeyDBPath          = "db_path"
	KeyServerPort      = "server_port"
	KeyLanguage        = "language"
	KeyTickInterval    = "tick_interval"
	KeyReloadInterval  = "reload_interval"
	KeyReminderEnabled = "reminder.enabled"
	KeyReminderValue   = "reminder.value"
	KeyReminderUnit    = "reminder.unit"
	KeyReminderDir     = "reminder.direction"
	KeyFeedToken       = "feed_token_required"
)

// SupportedLanguages defines the list of available display languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyJustStarted     = "just_started"
	TKeyUnitYear        = "unit_year"
	TKeyUnitMonth       = "unit_month"
	TKeyUnitDay         = "unit_day"
	TKeyUnitHour        = "unit_hour"
	TKeyUnitMinute      = "unit_minute"
	TKeyPartSeparator   = "part_separator"
	TKeyEvtAchieved     = "event_summary_achieved" // Requires Icon, Name
	TKeyEvtUpcoming     = "event_summary_upcoming" // Requires Icon, Name
	TKeyNextMilestone   = "next_milestone"         // Requires Name, Count
	TKeyAllMilestones   = "all_milestones_reached"
	TKeyNoActiveRecord  = "no_active_record"
	TKeyMilestonePrefix = "milestone_"     // + Milestone.ID
	TKeyMilestoneDesc   = "_description"   // Milestone.ID suffix
	TKeyStatusSince     = "status_since"   // Requires Date
	TKeyColMilestone    = "col_milestone"  // Milestones listing header
	TKeyColDays         = "col_days"       // Milestones listing header
	TKeyColReached      = "col_reached"    // Milestones listing header
	TKeyColCelebrated   = "col_celebrated" // Milestones listing header
	TKeyFormatDate      = "format_date_short"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultPort           = "18081"
	DefaultLanguage       = "en"
	DefaultTickInterval   = 1 * time.Second
	DefaultReloadInterval = 1 * time.Minute
	DefaultReminderValue  = 1
	DefaultSubstance      = "general"
	DefaultResetNote      = "Reset sobriety counter"
	UIDSalt               = "go-sobriety-v1-" // Salt for deterministic UID generation
)

// English duration units used by the plain formatter.
const (
	UnitYear            = "year"
	UnitMonth           = "month"
	UnitDay             = "day"
	UnitHour            = "hour"
	UnitMinute          = "minute"
	PluralSuffix        = "s"
	FormatPartSeparator = ", "
	MsgJustStarted      = "Just started"
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
	ISODay            = "D"
	ISOHour           = "H"
	ISOMinute         = "M"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Sobriety//Engine//EN"
	ICalCalName   = "Sobriety Milestones"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gosobriety"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits
// -----------------------------------------------------------------------------

const (
	// Date layouts accepted for a start date
	DateFormatFullDash      = "2006-01-02"
	DateFormatFullBasic     = "20060102"
	DateFormatRFC3339       = time.RFC3339
	DateFormatDateTime      = "2006-01-02T15:04"
	DateFormatDateTimeSec   = "2006-01-02T15:04:05"
	DateFormatDateTimeSpace = "2006-01-02 15:04"

	// DateFormatStorage is the fixed-width layout used for every timestamp
	// column, so that text ordering matches chronological ordering in UTC.
	DateFormatStorage = "2006-01-02T15:04:05.000000000Z07:00"
	DateFormatDisplay = "2006-01-02 15:04"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s"
	FormatUID       = "%s-%s@%s"

	// Feed token
	FeedTokenBytes = 24
)

// -----------------------------------------------------------------------------
// Storage (SQLite)
// -----------------------------------------------------------------------------

const (
	SQLDriver        = "sqlite"
	SQLBusyTimeoutMs = 5000
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	RetryAfterSeconds  = "10"
	AllowedMethods     = "GET, HEAD"
	RouteRoot          = "/"
	RouteCalendar      = "/calendar.ics"
	RouteStatus        = "/status"
	AddrSeparator      = ":"
	QueryToken         = "token"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderServer          = "Server"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrServerStartup     = "server startup failed"
	ErrServerShutdown    = "server shutdown failed"
	ErrPortRequired      = "server port is required"
	ErrPortNumber        = "server port must be a number"
	ErrPortRange         = "server port must be between 1 and 65535"
	ErrICalEncode        = "failed to encode iCalendar data"
	ErrStatusEncode      = "failed to encode status"
	ErrDateParse         = "unable to parse date"
	ErrLogFile           = "failed to open log file"
	ErrCacheDir          = "could not determine user cache dir"
	ErrConfigDir         = "could not determine user config dir"
	ErrCreateDir         = "could not create app directory"
	ErrAppFailed         = "application failed unexpectedly"
	ErrWriteResp         = "failed to write response body"
	ErrLocalesAccess     = "failed to access embedded locales"
	ErrLocaleLoad        = "failed to load locale file"
	ErrStoreOpen         = "failed to open record store"
	ErrRecordNotFound    = "sobriety record not found"
	ErrMilestoneNotFound = "milestone record not found"
	ErrNoActiveRecord    = "no active sobriety record"
	ErrLoadRecord        = "failed to load active record"
	ErrSaveMilestone     = "failed to record milestone"
	ErrTokenUnavailable  = "feed token unavailable"
	ErrTokenGenerate     = "failed to generate feed token"
	ErrUnknownOutput     = "unknown output format"
	ErrConfigRead        = "failed to read config file"
	ErrNothingToUpdate   = "nothing to update: pass --start, --substance or --notes"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgUnauthorized = "Unauthorized"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackSummary = "%s %s" // Icon, Name

	// StubVCalendar is the minimal valid iCalendar object served while no
	// sobriety period is active.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application stopped gracefully"
	MsgWorkerStart      = "Tracker started"
	MsgWorkerStop       = "Tracker stopping due to context cancellation"
	MsgRefresh          = "Active record reloaded"
	MsgRefreshFailed    = "Refresh failed, keeping previous snapshot"
	MsgNoActiveRecord   = "No active sobriety record"
	MsgMilestoneReached = "Milestone reached"
	MsgCalendarBuilt    = "Milestone calendar generated"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgCacheUpdated     = "Feed cache updated"
	MsgStatusUpdated    = "Status cache updated"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgStoreOpened      = "Record store opened"
	MsgRecordCreated    = "Sobriety record created"
	MsgRecordUpdated    = "Sobriety record updated"
	MsgMilestoneSaved   = "Milestone recorded"
	MsgCelebrated       = "Milestone celebrated"
	MsgTokenCreated     = "Feed token created"
	MsgTokenRotated     = "Feed token rotated"
	MsgConfigChanged    = "Config file changed, settings reloaded"
	MsgUnauthorized     = "Rejected feed request without a valid token"
)

// -----------------------------------------------------------------------------
// Reminder Units & Directions
// -----------------------------------------------------------------------------

const (
	UnitDays    = "d"
	UnitHours   = "h"
	UnitMinutes = "m"
	DirBefore   = "before"
	DirAfter    = "after"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent  = "component"
	LogKeyError      = "error"
	LogKeyFile       = "file"
	LogKeyLang       = "lang"
	LogKeyKey        = "key"
	LogKeyPort       = "port"
	LogKeyPath       = "path"
	LogKeyInterval   = "interval"
	LogKeyReload     = "reload_interval"
	LogKeyRecordID   = "record_id"
	LogKeyStart      = "start_date"
	LogKeySubstance  = "substance"
	LogKeyMilestone  = "milestone"
	LogKeyDays       = "days"
	LogKeyTotalDays  = "total_days"
	LogKeyCount      = "count"
	LogKeyUpcoming   = "upcoming"
	LogKeyArchived   = "archived"
	LogKeySizeBytes  = "size_bytes"
	LogKeyETag       = "etag"
	LogKeyRemoteAddr = "remote_addr"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "build_date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine  = "engine"
	CompServer  = "server"
	CompStore   = "store"
	CompTracker = "tracker"
	CompSecret  = "secret"
	CompMain    = "main"
	CompI18n    = "i18n"
	CompConfig  = "config"
)
