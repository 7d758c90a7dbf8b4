package chimu

// Bounds of the attitude quaternion sum of squares accepted as valid.
const (
	attitudeNormMin float32 = 0.8
	attitudeNormMax float32 = 1.2
)

// dispatch decodes a checksum-verified frame by message id.
func (p *Parser) dispatch() ParseResult {
	pr := ParseResult{MsgID: p.msgID, Complete: true}
	data := p.payload[:p.payloadLen]
	switch p.msgID {
	case MsgPing:
		pr.Updated, pr.Fault = p.decodePing(data)
	case MsgIMUFloat:
		pr.Updated, pr.Fault = p.decodeIMUFloat(data)
	case MsgAttitude:
		pr.Updated, pr.Fault = p.decodeAttitude(data)
	case MsgIMURaw, MsgBiasSF, MsgBIT, MsgMagCal, MsgGyroBias, MsgTempCal,
		MsgDACOffsets, MsgRes10, MsgRes11, MsgRes12, MsgRes13,
		MsgRefVector, MsgSFCheck:
		// known, not decoded
	}
	return pr
}

func (p *Parser) decodePing(data []byte) (bool, Fault) {
	if len(data) < PingPayloadSize {
		return false, FaultShortPayload
	}
	p.Ping = PingInfo{
		Exclaim:      data[0],
		Major:        data[1],
		Minor:        data[2],
		SerialNumber: uint16(data[3])<<8 | uint16(data[4]),
	}
	return true, FaultNone
}

func (p *Parser) decodeIMUFloat(data []byte) (bool, Fault) {
	if len(data) < IMUFloatPayloadSize {
		return false, FaultShortPayload
	}
	p.Sensor = SensorSample{
		Temp:   DecodeFloat32(data[0:]),
		Acc:    DecodeVector3(data[4:]),
		Rate:   DecodeVector3(data[16:]),
		Mag:    DecodeVector3(data[28:]),
		Spare1: DecodeFloat32(data[40:]),
	}
	return true, FaultNone
}

// decodeAttitude commits the attitude only when the quaternion is close to
// unit norm. A rejected frame still counts as processed.
func (p *Parser) decodeAttitude(data []byte) (bool, Fault) {
	if len(data) < AttitudePayloadSize {
		return false, FaultShortPayload
	}
	var att, rates AttitudeSample
	e := DecodeVector3(data[0:])
	att.Euler = Euler{Phi: e.X, Theta: e.Y, Psi: e.Z}
	rate := DecodeVector3(data[12:])
	att.Q = DecodeQuaternion(data[24:])
	rates.Q = DecodeQuaternion(data[40:])
	rates.Euler = Euler{Phi: rates.Q.V.X, Theta: rates.Q.V.Y, Psi: rates.Q.V.Z}

	if p.QuatEstimator {
		att.Euler = EulerFromQuaternion(att.Q)
	}

	if s := att.Q.SumSquares(); s > attitudeNormMin && s < attitudeNormMax {
		p.Attitude, p.AttitudeRate = att, rates
		p.Sensor.Rate = rate
		return true, FaultNone
	}
	return true, FaultAttitudeSanity
}
