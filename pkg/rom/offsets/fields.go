package offsets

// Field names a binary structure of the cartridge image
type Field int

const (
	FieldHeader Field = iota
	FieldTrackThemes
	FieldTrackNames
	FieldTrackNameSuffixes
	FieldTrackMaps
	FieldOverlayTiles
	FieldAIOffsets
	FieldAIData
	FieldGPStartPositions
	FieldGPSecondRowOffsets
	FieldLapLines
	FieldItemProbabilityIndexes
	FieldBattleStartPositions
	FieldTrackObjects
	FieldObjectAreas
	FieldRankPoints
	FieldModeNames
	FieldGPCupSelectTexts
	FieldGPResultsCupTexts
	FieldGPPodiumCupTexts
	FieldCourseSelectTexts
	FieldDriverNamesGPResults
	FieldDriverNamesGPPodium
	FieldDriverNamesTimeTrial

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldHeader:                 "Header",
	FieldTrackThemes:            "TrackThemes",
	FieldTrackNames:             "TrackNames",
	FieldTrackNameSuffixes:      "TrackNameSuffixes",
	FieldTrackMaps:              "TrackMaps",
	FieldOverlayTiles:           "OverlayTiles",
	FieldAIOffsets:              "AIOffsets",
	FieldAIData:                 "AIData",
	FieldGPStartPositions:       "GPStartPositions",
	FieldGPSecondRowOffsets:     "GPSecondRowOffsets",
	FieldLapLines:               "LapLines",
	FieldItemProbabilityIndexes: "ItemProbabilityIndexes",
	FieldBattleStartPositions:   "BattleStartPositions",
	FieldTrackObjects:           "TrackObjects",
	FieldObjectAreas:            "ObjectAreas",
	FieldRankPoints:             "RankPoints",
	FieldModeNames:              "ModeNames",
	FieldGPCupSelectTexts:       "GPCupSelectTexts",
	FieldGPResultsCupTexts:      "GPResultsCupTexts",
	FieldGPPodiumCupTexts:       "GPPodiumCupTexts",
	FieldCourseSelectTexts:      "CourseSelectTexts",
	FieldDriverNamesGPResults:   "DriverNamesGPResults",
	FieldDriverNamesGPPodium:    "DriverNamesGPPodium",
	FieldDriverNamesTimeTrial:   "DriverNamesTimeTrial",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "Unknown"
	}
	return fieldNames[f]
}

// Fields returns every field key
func Fields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}
