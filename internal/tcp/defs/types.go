package defs

import "strconv"

// MsgType identifies the kind of a protocol message. Types below MsgData carry
// only a header, types from MsgData up must carry a payload. Ordinals are part
// of the wire format: new types go into the reserved slots.
type MsgType int32

const (
	// header-only messages
	MsgNull MsgType = iota
	MsgVersionMismatch
	MsgMagicMismatch
	MsgInvalid
	MsgConfirm
	MsgStatRequest
	MsgConfigLoad
	MsgFarmLoad
	MsgMagicNumber
	MsgClientExitRequest
	MsgClientRestartRequest
	MsgClientWOLSleepRequest
	MsgClientRebootRequest
	MsgClientShutdownRequest
	MsgTalkId
	MsgTalkUpdateId
	MsgTalksListRequest
	MsgTalkDeregister
	MsgMonitorId
	MsgMonitorUpdateId
	MsgMonitorsListRequest
	MsgMonitorDeregister
	MsgRenderId
	MsgRendersListRequest
	MsgRenderLogRequestId
	MsgRenderTasksLogRequestId
	MsgRenderInfoRequestId
	MsgRenderDeregister
	MsgUsersListRequest
	MsgUserId
	MsgUserLogRequestId
	MsgUserJobsOrderRequestId
	MsgJobsListRequest
	MsgJobsListRequestUserId
	MsgJobLogRequestId
	MsgJobErrorHostsRequestId
	MsgJobsWeightRequest
	MsgJobRequestId
	MsgJobProgressRequestId
	MsgReserved00
	MsgReserved01
	MsgReserved02
	MsgReserved03
	MsgReserved04
	MsgReserved05
	MsgReserved06
	MsgReserved07
	MsgReserved08
	MsgReserved09

	// data messages
	MsgData
	MsgTestData
	MsgString
	MsgStringList
	MsgStatData
	MsgTalkRegister
	MsgTalksListRequestIds
	MsgTalksList
	MsgTalkDistributeData
	MsgTalkData
	MsgTalkExit
	MsgMonitorRegister
	MsgMonitorsListRequestIds
	MsgMonitorsList
	MsgMonitorSubscribe
	MsgMonitorUnsubscribe
	MsgMonitorUsersJobs
	MsgMonitorJobsIdsAdd
	MsgMonitorJobsIdsSet
	MsgMonitorJobsIdsDel
	MsgMonitorMessage
	MsgMonitorExit
	MsgMonitorEventsBegin
	MsgMonitorJobEventsBegin
	MsgMonitorJobsAdd
	MsgMonitorJobsChanged
	MsgMonitorJobsDel
	MsgMonitorJobEventsEnd
	MsgMonitorCommonEventsBegin
	MsgMonitorUsersAdd
	MsgMonitorUsersChanged
	MsgMonitorUsersDel
	MsgMonitorRendersAdd
	MsgMonitorRendersChanged
	MsgMonitorRendersDel
	MsgMonitorMonitorsAdd
	MsgMonitorMonitorsChanged
	MsgMonitorMonitorsDel
	MsgMonitorTalksAdd
	MsgMonitorTalksDel
	MsgMonitorCommonEventsEnd
	MsgMonitorEventsEnd
	MsgRenderRegister
	MsgRenderUpdate
	MsgRendersListRequestIds
	MsgRendersUpdateRequestIds
	MsgRendersList
	MsgRendersListUpdates
	MsgRenderSetPriority
	MsgRenderSetCapacity
	MsgRenderSetMaxTasks
	MsgRenderSetService
	MsgRenderRestoreDefaults
	MsgRenderSetNIMBY
	MsgRenderSetUser
	MsgRenderSetNimby
	MsgRenderSetFree
	MsgRenderStopTask
	MsgRenderCloseTask
	MsgRenderEjectTasks
	MsgRenderDelete
	MsgRenderRestart
	MsgRenderWOLSleep
	MsgRenderWOLWake
	MsgRenderReboot
	MsgRenderShutdown
	MsgRenderAnnotate
	MsgRenderExit
	MsgRenderEjectNotMyTasks
	MsgUsersListRequestIds
	MsgUsersList
	MsgUserAdd
	MsgUserDel
	MsgUserJobsLifeTime
	MsgUserHostsMask
	MsgUserHostsMaskExclude
	MsgUserMaxRunningTasks
	MsgUserPriority
	MsgUserErrorsAvoidHost
	MsgUserErrorRetries
	MsgUserErrorsTaskSameHost
	MsgUserErrorsForgiveTime
	MsgUserIdRequest
	MsgUserMoveJobsUp
	MsgUserMoveJobsDown
	MsgUserMoveJobsTop
	MsgUserMoveJobsBottom
	MsgUserJobsOrder
	MsgUserAnnotate
	MsgUserJobsSolveMethod
	MsgJobRegister
	MsgJobStart
	MsgJobStop
	MsgJobRestart
	MsgJobRestartErrors
	MsgJobResetErrorHosts
	MsgJobPause
	MsgJobRestartPause
	MsgJobDelete
	MsgJobsListRequestIds
	MsgJobsListRequestUsersIds
	MsgJobsList
	MsgJobProgress
	MsgJobHostsMask
	MsgJobHostsMaskExclude
	MsgJobDependMask
	MsgJobDependMaskGlobal
	MsgJobMaxRunningTasks
	MsgJobMaxRunTasksPerHost
	MsgJobWaitTime
	MsgJobLifeTime
	MsgJobPriority
	MsgJobNeedOS
	MsgJobNeedProperties
	MsgJobsWeight
	MsgJobCmdPost
	MsgJobAnnotate
	MsgJobSetUser
	MsgJob
	MsgBlockDependMask
	MsgBlockTasksDependMask
	MsgBlockTasksMaxRunTime
	MsgBlockHostsMask
	MsgBlockHostsMaskExclude
	MsgBlockMaxRunningTasks
	MsgBlockMaxRunTasksPerHost
	MsgBlockCommand
	MsgBlockWorkingDir
	MsgBlockFiles
	MsgBlockCmdPost
	MsgBlockService
	MsgBlockParser
	MsgBlockParserCoeff
	MsgBlockResetErrorHosts
	MsgBlockErrorsAvoidHost
	MsgBlockErrorRetries
	MsgBlockErrorsSameHost
	MsgBlockErrorsForgiveTime
	MsgBlockCapacity
	MsgBlockCapacityCoeffMin
	MsgBlockCapacityCoeffMax
	MsgBlockMultiHostMin
	MsgBlockMultiHostMax
	MsgBlockMultiHostWaitMax
	MsgBlockMultiHostWaitSrv
	MsgBlockNeedMemory
	MsgBlockNeedPower
	MsgBlockNeedHDD
	MsgBlockNeedProperties
	MsgBlocksProgress
	MsgBlocksProperties
	MsgBlocks
	MsgTask
	MsgTasksSkip
	MsgTasksRestart
	MsgTaskRequest
	MsgTaskLogRequest
	MsgTaskErrorHostsRequest
	MsgTaskOutputRequest
	MsgTaskUpdatePercent
	MsgTaskUpdateState
	MsgTaskListenOutput
	MsgTaskOutput
	MsgTasksRun
	MsgReserved10
	MsgReserved11
	MsgReserved12
	MsgReserved13
	MsgReserved14
	MsgReserved15
	MsgJSON
	MsgBlockNonSequential
	MsgRenderHideShow
	MsgJobHideShow
	MsgLast
)

var msgTypeNames = [...]string{
	MsgNull:                     "NULL",
	MsgVersionMismatch:          "VersionMismatch",
	MsgMagicMismatch:            "MagicMismatch",
	MsgInvalid:                  "Invalid",
	MsgConfirm:                  "Confirm",
	MsgStatRequest:              "StatRequest",
	MsgConfigLoad:               "ConfigLoad",
	MsgFarmLoad:                 "FarmLoad",
	MsgMagicNumber:              "MagicNumber",
	MsgClientExitRequest:        "ClientExitRequest",
	MsgClientRestartRequest:     "ClientRestartRequest",
	MsgClientWOLSleepRequest:    "ClientWOLSleepRequest",
	MsgClientRebootRequest:      "ClientRebootRequest",
	MsgClientShutdownRequest:    "ClientShutdownRequest",
	MsgTalkId:                   "TalkId",
	MsgTalkUpdateId:             "TalkUpdateId",
	MsgTalksListRequest:         "TalksListRequest",
	MsgTalkDeregister:           "TalkDeregister",
	MsgMonitorId:                "MonitorId",
	MsgMonitorUpdateId:          "MonitorUpdateId",
	MsgMonitorsListRequest:      "MonitorsListRequest",
	MsgMonitorDeregister:        "MonitorDeregister",
	MsgRenderId:                 "RenderId",
	MsgRendersListRequest:       "RendersListRequest",
	MsgRenderLogRequestId:       "RenderLogRequestId",
	MsgRenderTasksLogRequestId:  "RenderTasksLogRequestId",
	MsgRenderInfoRequestId:      "RenderInfoRequestId",
	MsgRenderDeregister:         "RenderDeregister",
	MsgUsersListRequest:         "UsersListRequest",
	MsgUserId:                   "UserId",
	MsgUserLogRequestId:         "UserLogRequestId",
	MsgUserJobsOrderRequestId:   "UserJobsOrderRequestId",
	MsgJobsListRequest:          "JobsListRequest",
	MsgJobsListRequestUserId:    "JobsListRequestUserId",
	MsgJobLogRequestId:          "JobLogRequestId",
	MsgJobErrorHostsRequestId:   "JobErrorHostsRequestId",
	MsgJobsWeightRequest:        "JobsWeightRequest",
	MsgJobRequestId:             "JobRequestId",
	MsgJobProgressRequestId:     "JobProgressRequestId",
	MsgReserved00:               "RESERVED00",
	MsgReserved01:               "RESERVED01",
	MsgReserved02:               "RESERVED02",
	MsgReserved03:               "RESERVED03",
	MsgReserved04:               "RESERVED04",
	MsgReserved05:               "RESERVED05",
	MsgReserved06:               "RESERVED06",
	MsgReserved07:               "RESERVED07",
	MsgReserved08:               "RESERVED08",
	MsgReserved09:               "RESERVED09",
	MsgData:                     "DATA",
	MsgTestData:                 "TESTDATA",
	MsgString:                   "String",
	MsgStringList:               "StringList",
	MsgStatData:                 "StatData",
	MsgTalkRegister:             "TalkRegister",
	MsgTalksListRequestIds:      "TalksListRequestIds",
	MsgTalksList:                "TalksList",
	MsgTalkDistributeData:       "TalkDistributeData",
	MsgTalkData:                 "TalkData",
	MsgTalkExit:                 "TalkExit",
	MsgMonitorRegister:          "MonitorRegister",
	MsgMonitorsListRequestIds:   "MonitorsListRequestIds",
	MsgMonitorsList:             "MonitorsList",
	MsgMonitorSubscribe:         "MonitorSubscribe",
	MsgMonitorUnsubscribe:       "MonitorUnsubscribe",
	MsgMonitorUsersJobs:         "MonitorUsersJobs",
	MsgMonitorJobsIdsAdd:        "MonitorJobsIdsAdd",
	MsgMonitorJobsIdsSet:        "MonitorJobsIdsSet",
	MsgMonitorJobsIdsDel:        "MonitorJobsIdsDel",
	MsgMonitorMessage:           "MonitorMessage",
	MsgMonitorExit:              "MonitorExit",
	MsgMonitorEventsBegin:       "MonitorEvents_BEGIN",
	MsgMonitorJobEventsBegin:    "MonitorJobEvents_BEGIN",
	MsgMonitorJobsAdd:           "MonitorJobsAdd",
	MsgMonitorJobsChanged:       "MonitorJobsChanged",
	MsgMonitorJobsDel:           "MonitorJobsDel",
	MsgMonitorJobEventsEnd:      "MonitorJobEvents_END",
	MsgMonitorCommonEventsBegin: "MonitorCommonEvents_BEGIN",
	MsgMonitorUsersAdd:          "MonitorUsersAdd",
	MsgMonitorUsersChanged:      "MonitorUsersChanged",
	MsgMonitorUsersDel:          "MonitorUsersDel",
	MsgMonitorRendersAdd:        "MonitorRendersAdd",
	MsgMonitorRendersChanged:    "MonitorRendersChanged",
	MsgMonitorRendersDel:        "MonitorRendersDel",
	MsgMonitorMonitorsAdd:       "MonitorMonitorsAdd",
	MsgMonitorMonitorsChanged:   "MonitorMonitorsChanged",
	MsgMonitorMonitorsDel:       "MonitorMonitorsDel",
	MsgMonitorTalksAdd:          "MonitorTalksAdd",
	MsgMonitorTalksDel:          "MonitorTalksDel",
	MsgMonitorCommonEventsEnd:   "MonitorCommonEvents_END",
	MsgMonitorEventsEnd:         "MonitorEvents_END",
	MsgRenderRegister:           "RenderRegister",
	MsgRenderUpdate:             "RenderUpdate",
	MsgRendersListRequestIds:    "RendersListRequestIds",
	MsgRendersUpdateRequestIds:  "RendersUpdateRequestIds",
	MsgRendersList:              "RendersList",
	MsgRendersListUpdates:       "RendersListUpdates",
	MsgRenderSetPriority:        "RenderSetPriority",
	MsgRenderSetCapacity:        "RenderSetCapacity",
	MsgRenderSetMaxTasks:        "RenderSetMaxTasks",
	MsgRenderSetService:         "RenderSetService",
	MsgRenderRestoreDefaults:    "RenderRestoreDefaults",
	MsgRenderSetNIMBY:           "RenderSetNIMBY",
	MsgRenderSetUser:            "RenderSetUser",
	MsgRenderSetNimby:           "RenderSetNimby",
	MsgRenderSetFree:            "RenderSetFree",
	MsgRenderStopTask:           "RenderStopTask",
	MsgRenderCloseTask:          "RenderCloseTask",
	MsgRenderEjectTasks:         "RenderEjectTasks",
	MsgRenderDelete:             "RenderDelete",
	MsgRenderRestart:            "RenderRestart",
	MsgRenderWOLSleep:           "RenderWOLSleep",
	MsgRenderWOLWake:            "RenderWOLWake",
	MsgRenderReboot:             "RenderReboot",
	MsgRenderShutdown:           "RenderShutdown",
	MsgRenderAnnotate:           "RenderAnnotate",
	MsgRenderExit:               "RenderExit",
	MsgRenderEjectNotMyTasks:    "RenderEjectNotMyTasks",
	MsgUsersListRequestIds:      "UsersListRequestIds",
	MsgUsersList:                "UsersList",
	MsgUserAdd:                  "UserAdd",
	MsgUserDel:                  "UserDel",
	MsgUserJobsLifeTime:         "UserJobsLifeTime",
	MsgUserHostsMask:            "UserHostsMask",
	MsgUserHostsMaskExclude:     "UserHostsMaskExclude",
	MsgUserMaxRunningTasks:      "UserMaxRunningTasks",
	MsgUserPriority:             "UserPriority",
	MsgUserErrorsAvoidHost:      "UserErrorsAvoidHost",
	MsgUserErrorRetries:         "UserErrorRetries",
	MsgUserErrorsTaskSameHost:   "UserErrorsTaskSameHost",
	MsgUserErrorsForgiveTime:    "UserErrorsForgiveTime",
	MsgUserIdRequest:            "UserIdRequest",
	MsgUserMoveJobsUp:           "UserMoveJobsUp",
	MsgUserMoveJobsDown:         "UserMoveJobsDown",
	MsgUserMoveJobsTop:          "UserMoveJobsTop",
	MsgUserMoveJobsBottom:       "UserMoveJobsBottom",
	MsgUserJobsOrder:            "UserJobsOrder",
	MsgUserAnnotate:             "UserAnnotate",
	MsgUserJobsSolveMethod:      "UserJobsSolveMethod",
	MsgJobRegister:              "JobRegister",
	MsgJobStart:                 "JobStart",
	MsgJobStop:                  "JobStop",
	MsgJobRestart:               "JobRestart",
	MsgJobRestartErrors:         "JobRestartErrors",
	MsgJobResetErrorHosts:       "JobResetErrorHosts",
	MsgJobPause:                 "JobPause",
	MsgJobRestartPause:          "JobRestartPause",
	MsgJobDelete:                "JobDelete",
	MsgJobsListRequestIds:       "JobsListRequestIds",
	MsgJobsListRequestUsersIds:  "JobsListRequestUsersIds",
	MsgJobsList:                 "JobsList",
	MsgJobProgress:              "JobProgress",
	MsgJobHostsMask:             "JobHostsMask",
	MsgJobHostsMaskExclude:      "JobHostsMaskExclude",
	MsgJobDependMask:            "JobDependMask",
	MsgJobDependMaskGlobal:      "JobDependMaskGlobal",
	MsgJobMaxRunningTasks:       "JobMaxRunningTasks",
	MsgJobMaxRunTasksPerHost:    "JobMaxRunTasksPerHost",
	MsgJobWaitTime:              "JobWaitTime",
	MsgJobLifeTime:              "JobLifeTime",
	MsgJobPriority:              "JobPriority",
	MsgJobNeedOS:                "JobNeedOS",
	MsgJobNeedProperties:        "JobNeedProperties",
	MsgJobsWeight:               "JobsWeight",
	MsgJobCmdPost:               "JobCmdPost",
	MsgJobAnnotate:              "JobAnnotate",
	MsgJobSetUser:               "JobSetUser",
	MsgJob:                      "Job",
	MsgBlockDependMask:          "BlockDependMask",
	MsgBlockTasksDependMask:     "BlockTasksDependMask",
	MsgBlockTasksMaxRunTime:     "BlockTasksMaxRunTime",
	MsgBlockHostsMask:           "BlockHostsMask",
	MsgBlockHostsMaskExclude:    "BlockHostsMaskExclude",
	MsgBlockMaxRunningTasks:     "BlockMaxRunningTasks",
	MsgBlockMaxRunTasksPerHost:  "BlockMaxRunTasksPerHost",
	MsgBlockCommand:             "BlockCommand",
	MsgBlockWorkingDir:          "BlockWorkingDir",
	MsgBlockFiles:               "BlockFiles",
	MsgBlockCmdPost:             "BlockCmdPost",
	MsgBlockService:             "BlockService",
	MsgBlockParser:              "BlockParser",
	MsgBlockParserCoeff:         "BlockParserCoeff",
	MsgBlockResetErrorHosts:     "BlockResetErrorHosts",
	MsgBlockErrorsAvoidHost:     "BlockErrorsAvoidHost",
	MsgBlockErrorRetries:        "BlockErrorRetries",
	MsgBlockErrorsSameHost:      "BlockErrorsSameHost",
	MsgBlockErrorsForgiveTime:   "BlockErrorsForgiveTime",
	MsgBlockCapacity:            "BlockCapacity",
	MsgBlockCapacityCoeffMin:    "BlockCapacityCoeffMin",
	MsgBlockCapacityCoeffMax:    "BlockCapacityCoeffMax",
	MsgBlockMultiHostMin:        "BlockMultiHostMin",
	MsgBlockMultiHostMax:        "BlockMultiHostMax",
	MsgBlockMultiHostWaitMax:    "BlockMultiHostWaitMax",
	MsgBlockMultiHostWaitSrv:    "BlockMultiHostWaitSrv",
	MsgBlockNeedMemory:          "BlockNeedMemory",
	MsgBlockNeedPower:           "BlockNeedPower",
	MsgBlockNeedHDD:             "BlockNeedHDD",
	MsgBlockNeedProperties:      "BlockNeedProperties",
	MsgBlocksProgress:           "BlocksProgress",
	MsgBlocksProperties:         "BlocksProperties",
	MsgBlocks:                   "Blocks",
	MsgTask:                     "Task",
	MsgTasksSkip:                "TasksSkip",
	MsgTasksRestart:             "TasksRestart",
	MsgTaskRequest:              "TaskRequest",
	MsgTaskLogRequest:           "TaskLogRequest",
	MsgTaskErrorHostsRequest:    "TaskErrorHostsRequest",
	MsgTaskOutputRequest:        "TaskOutputRequest",
	MsgTaskUpdatePercent:        "TaskUpdatePercent",
	MsgTaskUpdateState:          "TaskUpdateState",
	MsgTaskListenOutput:         "TaskListenOutput",
	MsgTaskOutput:               "TaskOutput",
	MsgTasksRun:                 "TasksRun",
	MsgReserved10:               "RESERVED10",
	MsgReserved11:               "RESERVED11",
	MsgReserved12:               "RESERVED12",
	MsgReserved13:               "RESERVED13",
	MsgReserved14:               "RESERVED14",
	MsgReserved15:               "RESERVED15",
	MsgJSON:                     "JSON",
	MsgBlockNonSequential:       "BlockNonSequential",
	MsgRenderHideShow:           "RenderHideShow",
	MsgJobHideShow:              "JobHideShow",
	MsgLast:                     "LAST",
}

// IsData reports whether messages of this type must carry a payload.
func (t MsgType) IsData() bool { return t >= MsgData }

// IsValid reports whether t is a known ordinal.
func (t MsgType) IsValid() bool { return t >= MsgNull && t < MsgLast }

// IsEvent reports whether t is a monitor event delivery type.
func (t MsgType) IsEvent() bool {
	return t.IsJobEvent() || t.IsCommonEvent()
}

func (t MsgType) IsJobEvent() bool {
	return t > MsgMonitorJobEventsBegin && t < MsgMonitorJobEventsEnd
}

func (t MsgType) IsCommonEvent() bool {
	return t > MsgMonitorCommonEventsBegin && t < MsgMonitorCommonEventsEnd
}

func (t MsgType) String() string {
	if t.IsValid() || t == MsgLast {
		return msgTypeNames[t]
	}
	return "MsgType(" + strconv.Itoa(int(t)) + ")"
}
